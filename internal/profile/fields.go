package profile

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"linkedin-ingest/internal/models"
)

const (
	tagCurrent  = "[Current]"
	tagPrevious = "[Previous]"
)

// present reports whether v carries a value the renderer should use:
// it exists, is not null, and is not an empty string, array or object.
func present(v gjson.Result) bool {
	if !v.Exists() || v.Type == gjson.Null {
		return false
	}
	switch {
	case v.Type == gjson.String:
		return v.Str != ""
	case v.Type == gjson.False:
		return false
	case v.IsArray():
		return len(v.Array()) > 0
	case v.IsObject():
		return len(v.Map()) > 0
	}
	return true
}

// requireString returns the string at field or an error naming it.
func requireString(item gjson.Result, field string) (string, error) {
	v := item.Get(field)
	if !v.Exists() || v.Type == gjson.Null {
		return "", fmt.Errorf("missing required field %q", field)
	}
	if v.Type != gjson.String {
		return "", fmt.Errorf("field %q is not a string", field)
	}
	return v.Str, nil
}

// optionalString returns the string at field when present.
func optionalString(item gjson.Result, field string) (string, bool) {
	v := item.Get(field)
	if !present(v) {
		return "", false
	}
	return v.String(), true
}

// records returns the elements of the list at key. An absent or empty list
// yields nil; a value that is not a list is an error.
func records(raw models.RawProfile, key string) ([]gjson.Result, error) {
	v := raw.Get(key)
	if !present(v) {
		return nil, nil
	}
	if !v.IsArray() {
		return nil, fmt.Errorf("%s is not a list", key)
	}
	return v.Array(), nil
}

// timePeriod parses an item's optional timePeriod.
func timePeriod(item gjson.Result) (*models.DateRange, error) {
	v := item.Get("timePeriod")
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	r, err := models.ParseDateRange(v)
	if err != nil {
		return nil, fmt.Errorf("timePeriod: %w", err)
	}
	return &r, nil
}

// fenced renders a triple-quoted free-text block.
func fenced(label, text string) string {
	return label + ":\n\"\"\"\n" + text + "\n\"\"\"\n"
}

// others renders " and N other(s)" for a count that includes the owner.
func others(count int) string {
	if count > 1 {
		return fmt.Sprintf(" and %d other(s)", count-1)
	}
	return ""
}

// section joins item blocks under header, one blank line apart, without a
// trailing newline. No blocks means no section.
func section(header string, blocks []string) string {
	if len(blocks) == 0 {
		return ""
	}
	return header + "\n" + strings.TrimSuffix(strings.Join(blocks, "\n"), "\n")
}
