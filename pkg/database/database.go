package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/noah-isme/sma-result-desk/pkg/config"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Open returns the local keyed store. SQLite is the default single-user
// store; Postgres lets several desks share badges.
func Open(cfg config.LocalDBConfig) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch cfg.Driver {
	case "", DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "result-desk.db"
		}
		db, err = sqlx.Open(DriverSQLite, dsn+"?_busy_timeout=5000&_journal_mode=WAL")
		if err == nil {
			// SQLite serialises writers anyway.
			db.SetMaxOpenConns(1)
		}
	case DriverPostgres:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
				cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
		}
		db, err = sqlx.Open(DriverPostgres, dsn)
		if err == nil {
			if cfg.MaxOpenConns > 0 {
				db.SetMaxOpenConns(cfg.MaxOpenConns)
			}
			if cfg.MaxIdleConns > 0 {
				db.SetMaxIdleConns(cfg.MaxIdleConns)
			}
			db.SetConnMaxLifetime(1 * time.Hour)
			db.SetConnMaxIdleTime(30 * time.Minute)
		}
	default:
		return nil, fmt.Errorf("unsupported local db driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS draft_status_badges (
	course_id BIGINT PRIMARY KEY,
	status TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS desk_sessions (
	id TEXT PRIMARY KEY,
	user_payload TEXT NOT NULL,
	sealed_tokens TEXT NOT NULL,
	expires_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`,
}

// Migrate creates the local tables when missing. Statements are portable
// between SQLite and Postgres.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate local store: %w", err)
		}
	}
	return nil
}
