package store

import (
	"context"
	"time"

	"github.com/hrygo/wingman/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

// CreateChatTurn appends a turn to the log. CreatedTs is stamped when unset.
func (s *Store) CreateChatTurn(ctx context.Context, create *ChatTurn) (*ChatTurn, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	return s.driver.CreateChatTurn(ctx, create)
}

func (s *Store) ListChatTurns(ctx context.Context, find *FindChatTurn) ([]*ChatTurn, error) {
	return s.driver.ListChatTurns(ctx, find)
}

// ListRecentChatTurns returns at most limit turns of a session, newest first.
func (s *Store) ListRecentChatTurns(ctx context.Context, userID int32, sessionID string, limit int) ([]*ChatTurn, error) {
	return s.driver.ListChatTurns(ctx, &FindChatTurn{
		UserID:    &userID,
		SessionID: &sessionID,
		OrderDesc: true,
		Limit:     &limit,
	})
}
