package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"linkedin-ingest/internal/models"
)

// IngestionRepository handles ingestion history
type IngestionRepository struct {
	db *sql.DB
}

// NewIngestionRepository creates a new ingestion repository
func NewIngestionRepository(db *DB) *IngestionRepository {
	return &IngestionRepository{db: db.GetConn()}
}

// Record stores one ingestion outcome
func (ir *IngestionRepository) Record(ctx context.Context, rec models.IngestionRecord) error {
	_, err := ir.db.ExecContext(ctx, `
		INSERT INTO ingestions (id, profile_id, status, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.ProfileID, string(rec.Status), nullString(rec.Error), rec.Duration.Milliseconds(), rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record ingestion: %w", err)
	}
	return nil
}

// Recent returns up to limit records for profileID, newest first
func (ir *IngestionRepository) Recent(ctx context.Context, profileID string, limit int) ([]models.IngestionRecord, error) {
	rows, err := ir.db.QueryContext(ctx, `
		SELECT id, profile_id, status, COALESCE(error, ''), duration_ms, created_at
		FROM ingestions
		WHERE profile_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, profileID, limit)
	if err != nil {
		return nil, err
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

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
