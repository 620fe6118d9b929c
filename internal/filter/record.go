// Package filter selects records by time window, title and collection.
package filter

import (
	"path/filepath"

	"github.com/dyluth/flowlog/pkg/datasvc"
)

// Criteria defines filtering criteria for records.
// All filters are ANDed together; zero values match everything.
type Criteria struct {
	SinceTimestampMs int64  // Unix timestamp in milliseconds, 0 = no filter
	UntilTimestampMs int64  // Unix timestamp in milliseconds, 0 = no filter
	TitleGlob        string // Glob pattern for the record title, empty = no filter
	Collection       string // Exact collection match, empty = no filter
}

// Matches returns true if the record matches all filter criteria.
func (c *Criteria) Matches(r *datasvc.Record) bool {
	if c == nil {
		return true
	}

	if c.SinceTimestampMs > 0 && r.CreatedAtMs < c.SinceTimestampMs {
		return false
	}
	if c.UntilTimestampMs > 0 && r.CreatedAtMs > c.UntilTimestampMs {
		return false
	}

	if c.TitleGlob != "" {
		matched, err := filepath.Match(c.TitleGlob, r.Title)
		if err != nil || !matched {
			return false
		}
	}

	if c.Collection != "" && r.Collection != c.Collection {
		return false
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c != nil && (c.SinceTimestampMs > 0 ||
		c.UntilTimestampMs > 0 ||
		c.TitleGlob != "" ||
		c.Collection != "")
}
