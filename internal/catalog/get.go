package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/flowlog/pkg/datasvc"
)

// GetRecord writes a single record as pretty-printed JSON.
func GetRecord(ctx context.Context, store Store, recordID string, w io.Writer) error {
	if !datasvc.IsRecordID(recordID) {
		return fmt.Errorf("invalid record ID format: must be %s<uuid>", datasvc.RecordIDPrefix)
	}

	r, err := store.GetRecord(ctx, recordID)
	if err != nil {
		if datasvc.IsNotFound(err) {
			return &RecordNotFoundError{RecordID: recordID}
		}
		return fmt.Errorf("failed to fetch record: %w", err)
	}

	if err := FormatSingleJSON(w, r); err != nil {
		return fmt.Errorf("failed to format record: %w", err)
	}
	return nil
}

// Lineage is a record together with its direct neighbours.
type Lineage struct {
	Record     *datasvc.Record
	Upstream   []*datasvc.Record
	Downstream []*datasvc.Record
}

// GetLineage loads a record, the records it derives from, and the records
// derived from it.
func GetLineage(ctx context.Context, store Store, recordID string) (*Lineage, error) {
	r, err := store.GetRecord(ctx, recordID)
	if err != nil {
		if datasvc.IsNotFound(err) {
			return nil, &RecordNotFoundError{RecordID: recordID}
		}
		return nil, fmt.Errorf("failed to fetch record: %w", err)
	}

	l := &Lineage{Record: r}
	for _, id := range r.DependencyIDs() {
		up, err := store.GetRecord(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch dependency %s: %w", id, err)
		}
		l.Upstream = append(l.Upstream, up)
	}

	derived, err := store.DerivedRecords(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list derived records: %w", err)
	}
	for _, id := range derived {
		down, err := store.GetRecord(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch derived record %s: %w", id, err)
		}
		l.Downstream = append(l.Downstream, down)
	}
	return l, nil
}

// RecordNotFoundError represents a specific "record not found" error.
type RecordNotFoundError struct {
	RecordID string
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("record with ID '%s' not found", e.RecordID)
}

// IsNotFound returns true if the error is a RecordNotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*RecordNotFoundError)
	return ok
}
