package mysql

import (
	"context"
	"database/sql"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"github.com/hrygo/wingman/internal/profile"
	"github.com/hrygo/wingman/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
	config  *mysql.Config
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	// Open MySQL connection with parameter.
	// multiStatements=true is required for migration.
	// See more in: https://github.com/go-sql-driver/mysql#multistatements
	dsn, err := mergeDSN(profile.DSN)
	if err != nil {
		return nil, err
	}

	driver := DB{profile: profile}
	driver.config, err = mysql.ParseDSN(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse DSN")
	}

	driver.db, err = sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db: %s", profile.DSN)
	}
	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func mergeDSN(baseDSN string) (string, error) {
	config, err := mysql.ParseDSN(baseDSN)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse DSN: %s", baseDSN)
	}

	config.MultiStatements = true
	return config.FormatDSN(), nil
}

const schema = `
CREATE TABLE IF NOT EXISTS chat_turn (
	id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
	user_id INT NOT NULL,
	session_id VARCHAR(255) NOT NULL,
	role VARCHAR(16) NOT NULL,
	user_message LONGTEXT,
	ai_response LONGTEXT,
	model_used VARCHAR(255),
	tool_call_id VARCHAR(255),
	tool_call_info LONGTEXT,
	tool_response_content LONGTEXT,
	uploaded_file_path VARCHAR(1024),
	created_ts BIGINT NOT NULL,
	INDEX idx_chat_turn_user_session (user_id, session_id, created_ts)
);
`

func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to create chat_turn table")
	}
	return nil
}
