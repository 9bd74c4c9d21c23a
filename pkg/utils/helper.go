package utils

import (
	"fmt"
	"time"
)

// ParseTime parses an RFC3339 query value, returning def when value is empty.
func ParseTime(value string, def time.Time) (time.Time, error) {
	if value == "" {
		return def, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, want RFC3339", value)
	}

	return t, nil
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
