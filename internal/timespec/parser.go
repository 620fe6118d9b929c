// Package timespec parses the --since and --until flags.
package timespec

import (
	"fmt"
	"time"

	"github.com/dyluth/flowlog/internal/serialize"
)

// Parse parses a time specification into a Unix timestamp (milliseconds).
// Supported forms:
//   - Go duration, relative to now: "1h", "30m", "1h30m"
//   - RFC3339: "2025-10-29T13:00:00Z"
//   - record timestamps in local time: "2025-10-29 13:00:00"
//   - a local date: "2025-10-29"
func Parse(spec string) (int64, error) {
	return parseAt(spec, time.Now())
}

func parseAt(spec string, now time.Time) (int64, error) {
	if spec == "" {
		return 0, fmt.Errorf("empty time specification")
	}

	// Try parsing as RFC3339 first
	if t, err := time.Parse(time.RFC3339, spec); err == nil {
		return t.UnixMilli(), nil
	}
	// Then the local wall-clock forms records are stamped with
	for _, layout := range []string{serialize.TimestampLayout, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, spec, time.Local); err == nil {
			return t.UnixMilli(), nil
		}
	}

	// Try parsing as Go duration
	if d, err := time.ParseDuration(spec); err == nil {
		// Duration is relative to now (subtract from current time)
		return now.Add(-d).UnixMilli(), nil
	}

	return 0, fmt.Errorf("invalid time specification: %s (use a duration like '1h30m', RFC3339 like '2025-10-29T13:00:00Z' or '2025-10-29 13:00:00')", spec)
}

// ParseRange parses both --since and --until flags into a time range.
// Returns (sinceTimestampMs, untilTimestampMs, error).
// Zero values indicate "no bound" for that end of the range.
//
// Validates that since < until if both are specified.
func ParseRange(since, until string) (int64, int64, error) {
	var sinceMS, untilMS int64
	var err error

	if since != "" {
		sinceMS, err = Parse(since)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --since: %w", err)
		}
	}

	if until != "" {
		untilMS, err = Parse(until)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --until: %w", err)
		}
	}

	// Validate range
	if sinceMS > 0 && untilMS > 0 && sinceMS >= untilMS {
		return 0, 0, fmt.Errorf("--since must be before --until")
	}

	return sinceMS, untilMS, nil
}
