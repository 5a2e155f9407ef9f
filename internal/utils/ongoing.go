package utils

import (
	"time"

	"linkedin-ingest/internal/models"
)

// IsOngoing reports whether a dated record is still in effect at now.
// No period, or a period without an end, is ongoing. Otherwise the end month
// (December when only a year is given) must not be before the current month.
func IsOngoing(period *models.DateRange, now time.Time) bool {
	if period == nil || period.End == nil {
		return true
	}
	endMonth := period.End.Month
	if endMonth == 0 {
		endMonth = 12
	}
	end := time.Date(period.End.Year, time.Month(endMonth), 1, 0, 0, 0, 0, time.UTC)
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return !end.Before(current)
}
