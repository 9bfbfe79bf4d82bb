package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/hrygo/wingman/internal/profile"
	"github.com/hrygo/wingman/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	// Open the PostgreSQL connection
	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		slog.Error("failed to open database connection", "error", err)
		return nil, errors.Wrap(err, "failed to open database connection")
	}

	if err := db.Ping(); err != nil {
		slog.Error("failed to ping database", "error", err)
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &DB{
		db:      db,
		profile: profile,
	}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS chat_turn (
	id BIGSERIAL PRIMARY KEY,
	user_id INTEGER NOT NULL,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	user_message TEXT,
	ai_response TEXT,
	model_used TEXT,
	tool_call_id TEXT,
	tool_call_info TEXT,
	tool_response_content TEXT,
	uploaded_file_path TEXT,
	created_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_turn_user_session ON chat_turn (user_id, session_id, created_ts);
`

func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to create chat_turn table")
	}
	return nil
}
