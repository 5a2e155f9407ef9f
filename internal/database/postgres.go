package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"linkedin-ingest/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id BIGSERIAL PRIMARY KEY,
	credential_id TEXT NOT NULL,
	cookie_blob BYTEA NOT NULL,
	obtained_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_sessions_credential ON sessions(credential_id, id);

CREATE TABLE IF NOT EXISTS ingestions (
	id TEXT PRIMARY KEY,
	profile_id TEXT NOT NULL,
	status TEXT NOT NULL,
	error TEXT,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ingestions_profile ON ingestions(profile_id, created_at);
`

// PostgresStore holds sessions and ingestion history in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres creates a pgx pool and applies the schema.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, errors.New("postgres dsn is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	config.MaxConns = 4
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool.
func (ps *PostgresStore) Close() error {
	ps.pool.Close()
	return nil
}

// Get returns the most recently stored session for credentialID.
func (ps *PostgresStore) Get(ctx context.Context, credentialID string) (models.Session, error) {
	s := models.Session{CredentialID: credentialID}
	err := ps.pool.QueryRow(ctx, `
		SELECT cookie_blob, obtained_at FROM sessions
		WHERE credential_id = $1
		ORDER BY id DESC
		LIMIT 1
	`, credentialID).Scan(&s.CookieBlob, &s.ObtainedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Session{}, fmt.Errorf("session for %s: %w", credentialID, models.ErrNotFound)
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("load session: %w", err)
	}
	return s, nil
}

// Put appends a session.
func (ps *PostgresStore) Put(ctx context.Context, s models.Session) error {
	_, err := ps.pool.Exec(ctx, `
		INSERT INTO sessions (credential_id, cookie_blob, obtained_at) VALUES ($1, $2, $3)
	`, s.CredentialID, s.CookieBlob, s.ObtainedAt)
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Record stores one ingestion outcome.
func (ps *PostgresStore) Record(ctx context.Context, rec models.IngestionRecord) error {
	_, err := ps.pool.Exec(ctx, `
		INSERT INTO ingestions (id, profile_id, status, error, duration_ms, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
	`, rec.ID, rec.ProfileID, string(rec.Status), rec.Error, rec.Duration.Milliseconds(), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("record ingestion: %w", err)
	}
	return nil
}

// Recent returns up to limit records for profileID, newest first.
func (ps *PostgresStore) Recent(ctx context.Context, profileID string, limit int) ([]models.IngestionRecord, error) {
	rows, err := ps.pool.Query(ctx, `
		SELECT id, profile_id, status, COALESCE(error, ''), duration_ms, created_at
		FROM ingestions
		WHERE profile_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("query ingestions: %w", err)
	}
	defer rows.Close()

	var records []models.IngestionRecord
	for rows.Next() {
		var (
			rec    models.IngestionRecord
			status string
			ms     int64
		)
		if err := rows.Scan(&rec.ID, &rec.ProfileID, &status, &rec.Error, &ms, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Status = models.IngestionStatus(status)
		rec.Duration = time.Duration(ms) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}
