package dbx

import (
	"fmt"
	"time"
)

// Timestamps are stored as UTC RFC 3339 text so they sort and round-trip
// exactly regardless of driver.

func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
