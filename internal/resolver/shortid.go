// Package resolver expands short record ids typed on the command line.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/dyluth/flowlog/pkg/datasvc"
)

// MinShortIDLength is the minimum number of id characters after the
// "d/" prefix a short id must carry.
const MinShortIDLength = 6

// Store is the part of the data service needed to resolve ids.
type Store interface {
	RecordExists(ctx context.Context, recordID string) (bool, error)
	ScanRecordIDs(ctx context.Context) ([]string, error)
}

// ResolveRecordID resolves a short id to a full record id. The "d/" prefix
// is optional.
//
// The function handles three cases:
// 1. Input is already a full record id - validates existence
// 2. Input is too short (< 6 chars after the prefix) - returns validation error
// 3. Input is a short prefix - scans for matches and returns unique result
func ResolveRecordID(ctx context.Context, store Store, shortID string) (string, error) {
	// If input is already a full id, verify it exists and return as-is
	if datasvc.IsRecordID(shortID) {
		exists, err := store.RecordExists(ctx, shortID)
		if err != nil {
			return "", fmt.Errorf("failed to verify record existence: %w", err)
		}
		if !exists {
			return "", &NotFoundError{ShortID: shortID}
		}
		return shortID, nil
	}

	// Validate minimum length
	prefix := strings.TrimPrefix(shortID, datasvc.RecordIDPrefix)
	if len(prefix) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(prefix))
	}

	// Scan for matching ids
	ids, err := store.ScanRecordIDs(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to search for record: %w", err)
	}

	var matches []string
	for _, id := range ids {
		if strings.HasPrefix(strings.TrimPrefix(id, datasvc.RecordIDPrefix), prefix) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: shortID}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: shortID, Matches: matches}
	}
}

// NotFoundError indicates no record matched the short ID.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no records found matching '%s'", e.ShortID)
}

// AmbiguousError indicates multiple records matched the short ID.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d records", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError lists up to 10 matches for display.
func FormatAmbiguousError(err *AmbiguousError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ambiguous short ID '%s' matches %d records:\n", err.ShortID, len(err.Matches))

	shown := err.Matches
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for _, id := range shown {
		fmt.Fprintf(&b, "  %s\n", id)
	}
	if len(err.Matches) > 10 {
		fmt.Fprintf(&b, "  ...and %d more\n", len(err.Matches)-10)
	}

	b.WriteString("\nUse a longer prefix to uniquely identify the record.")
	return b.String()
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	_, ok := err.(*AmbiguousError)
	return ok
}
