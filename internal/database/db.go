package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB represents the database connection
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath, creating the schema if needed.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_timeout=5000", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1) // SQLite doesn't support multiple writers
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	db := &DB{conn: conn}

	if err := db.InitSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// InitSchema creates the sessions and ingestions tables. Existing data is kept.
func (db *DB) InitSchema() error {
	createQueries := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			credential_id TEXT NOT NULL,
			cookie_blob BLOB NOT NULL,
			obtained_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_credential ON sessions(credential_id, id)`,

		`CREATE TABLE IF NOT EXISTS ingestions (
			id TEXT PRIMARY KEY,
			profile_id TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ingestions_profile ON ingestions(profile_id, created_at)`,
	}

	for _, query := range createQueries {
		if _, err := db.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// GetConn returns the underlying connection (for repositories)
func (db *DB) GetConn() *sql.DB {
	return db.conn
}
