package server

import (
	"strings"
	"time"
)

const queryDateLayout = "2006-01-02"

// parseOptionalTime parses a yyyy-mm-dd query value. With endOfDay the
// result covers the whole day so range filters are inclusive.
func parseOptionalTime(value string, endOfDay bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	parsed, err := time.ParseInLocation(queryDateLayout, value, time.UTC)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		parsed = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return &parsed, nil
}
