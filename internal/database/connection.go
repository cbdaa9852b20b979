package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/recallbot/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Connect opens the database selected by cfg and makes sure the schema exists
func Connect(cfg *config.Config) (*sqlx.DB, error) {
	switch cfg.DBType {
	case config.DBTypePostgres:
		return Open("postgres", cfg.DatabaseURL)
	default:
		// Create data directory if it doesn't exist
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		return Open("sqlite3", cfg.DBPath)
	}
}

// Open connects with a registered driver ("sqlite3" or "postgres") and
// migrates the schema.
func Open(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		// SQLite doesn't support multiple writers, and every connection to
		// :memory: is a separate database
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

var schema = []struct {
	name string
	ddl  string
}{
	{"cards", `
		CREATE TABLE IF NOT EXISTS cards (
			id TEXT PRIMARY KEY,
			deck TEXT NOT NULL DEFAULT '',
			front TEXT NOT NULL,
			back TEXT NOT NULL,
			hint TEXT NOT NULL DEFAULT '',
			explanation TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`},
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			telegram_id BIGINT PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			notification_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			notification_hour INTEGER NOT NULL DEFAULT 9,
			max_new_cards INTEGER NOT NULL DEFAULT 20,
			session_size INTEGER NOT NULL DEFAULT 20,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
	// Timestamps are RFC 3339 text so that both drivers return them verbatim.
	{"card_progress", `
		CREATE TABLE IF NOT EXISTS card_progress (
			user_id BIGINT NOT NULL,
			card_id TEXT NOT NULL REFERENCES cards(id),
			ease_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5,
			interval_days INTEGER NOT NULL DEFAULT 1,
			repetitions INTEGER NOT NULL DEFAULT 0,
			next_review TEXT NOT NULL,
			last_review TEXT,
			review_count INTEGER NOT NULL DEFAULT 0,
			correct_count INTEGER NOT NULL DEFAULT 0,
			incorrect_count INTEGER NOT NULL DEFAULT 0,
			streak INTEGER NOT NULL DEFAULT 0,
			quality INTEGER NOT NULL DEFAULT 0,
			version INTEGER NOT NULL DEFAULT 1,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (user_id, card_id)
		)`},
	{"card_progress_next_review_idx", `
		CREATE INDEX IF NOT EXISTS card_progress_next_review_idx
		ON card_progress (user_id, next_review)`},
}

// Migrate creates necessary tables if they don't exist
func Migrate(db *sqlx.DB) error {
	for _, s := range schema {
		if _, err := db.Exec(s.ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", s.name, err)
		}
	}
	return nil
}
