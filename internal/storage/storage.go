// Package storage selects the configured persistence backends: where
// session blobs and ingestion history live, and the document cache.
package storage

import (
	"context"
	"fmt"

	"linkedin-ingest/internal/database"
	"linkedin-ingest/internal/models"
)

// SessionStore persists session blobs; the most recent Put wins.
type SessionStore interface {
	Get(ctx context.Context, credentialID string) (models.Session, error)
	Put(ctx context.Context, s models.Session) error
}

// HistoryStore records ingestion outcomes.
type HistoryStore interface {
	Record(ctx context.Context, rec models.IngestionRecord) error
	Recent(ctx context.Context, profileID string, limit int) ([]models.IngestionRecord, error)
}

// Storage manages all storage operations for one configured driver
type Storage struct {
	Sessions SessionStore
	History  HistoryStore
	close    func() error
}

// Open connects the backend named by cfg.Driver.
func Open(ctx context.Context, cfg models.StoreConfig) (*Storage, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := database.New(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
		return &Storage{
			Sessions: database.NewSessionRepository(db),
			History:  database.NewIngestionRepository(db),
			close:    db.Close,
		}, nil
	case "postgres":
		pg, err := database.ConnectPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &Storage{Sessions: pg, History: pg, close: pg.Close}, nil
	case "memory":
		return &Storage{
			Sessions: NewMemorySessionStore(),
			History:  NewMemoryHistory(),
			close:    func() error { return nil },
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Close closes the underlying connection
func (s *Storage) Close() error {
	return s.close()
}
