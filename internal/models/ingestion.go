package models

import "time"

// IngestionStatus is the outcome recorded for one ingestion.
type IngestionStatus string

const (
	IngestionOK     IngestionStatus = "ok"
	IngestionCached IngestionStatus = "cached"
	IngestionFailed IngestionStatus = "failed"
)

// IngestionRecord is one row of ingestion history.
type IngestionRecord struct {
	ID        string
	ProfileID string
	Status    IngestionStatus
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}
