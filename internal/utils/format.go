package utils

import (
	"fmt"
	"time"

	"linkedin-ingest/internal/models"
)

// Date precisions accepted by FormatDate
const (
	PrecisionYear  = "year"
	PrecisionMonth = "month"
	PrecisionDay   = "day"
)

const (
	DefaultDurationPrefix = "DURATION: "
	DefaultDurationSuffix = "\n"
)

// FormatDate renders d as YYYY, YYYY-MM or YYYY-MM-DD. Finer precisions fall
// back to the finest the date actually carries.
func FormatDate(d models.PartialDate, precision string) (string, error) {
	switch precision {
	case PrecisionYear:
		return fmt.Sprintf("%d", d.Year), nil
	case PrecisionMonth:
		if d.Month != 0 {
			return fmt.Sprintf("%d-%02d", d.Year, d.Month), nil
		}
		return fmt.Sprintf("%d", d.Year), nil
	case PrecisionDay:
		if d.Month != 0 && d.Day != 0 {
			return fmt.Sprintf("%d-%02d-%02d", d.Year, d.Month, d.Day), nil
		}
		if d.Month != 0 {
			return fmt.Sprintf("%d-%02d", d.Year, d.Month), nil
		}
		return fmt.Sprintf("%d", d.Year), nil
	default:
		return "", fmt.Errorf("%w: %q", models.ErrInvalidPrecision, precision)
	}
}

// FormatDuration renders r as "DURATION: <start> to <end>\n".
func FormatDuration(r models.DateRange) string {
	return FormatDurationWith(r, DefaultDurationPrefix, DefaultDurationSuffix)
}

// FormatDurationWith renders r at month precision between prefix and suffix.
// A missing start is "Unknown", a missing end is "Present".
func FormatDurationWith(r models.DateRange, prefix, suffix string) string {
	start := "Unknown"
	if r.Start != nil {
		start, _ = FormatDate(*r.Start, PrecisionMonth)
	}
	end := "Present"
	if r.End != nil {
		end, _ = FormatDate(*r.End, PrecisionMonth)
	}
	return prefix + start + " to " + end + suffix
}

// FormatElapsed formats an elapsed wall-clock duration in a human-readable way
func FormatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	} else {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh%dm", h, m)
	}
}
