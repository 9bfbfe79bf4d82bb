package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates the tables the store needs when they are missing.
	Migrate(ctx context.Context) error

	// ChatTurn model related methods.
	CreateChatTurn(ctx context.Context, create *ChatTurn) (*ChatTurn, error)
	ListChatTurns(ctx context.Context, find *FindChatTurn) ([]*ChatTurn, error)
}
