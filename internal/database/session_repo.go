package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"linkedin-ingest/internal/models"
)

// SessionRepository keeps an append-only log of session blobs per credential.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db.GetConn()}
}

// Get returns the most recently stored session for credentialID.
func (sr *SessionRepository) Get(ctx context.Context, credentialID string) (models.Session, error) {
	s := models.Session{CredentialID: credentialID}
	err := sr.db.QueryRowContext(ctx, `
		SELECT cookie_blob, obtained_at FROM sessions
		WHERE credential_id = ?
		ORDER BY id DESC
		LIMIT 1
	`, credentialID).Scan(&s.CookieBlob, &s.ObtainedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, fmt.Errorf("session for %s: %w", credentialID, models.ErrNotFound)
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	return s, nil
}

// Put appends a session. It becomes the one Get returns.
func (sr *SessionRepository) Put(ctx context.Context, s models.Session) error {
	_, err := sr.db.ExecContext(ctx, `
		INSERT INTO sessions (credential_id, cookie_blob, obtained_at) VALUES (?, ?, ?)
	`, s.CredentialID, s.CookieBlob, s.ObtainedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}
