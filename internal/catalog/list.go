// Package catalog lists and shows data-service records for the CLI.
package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dyluth/flowlog/internal/filter"
	"github.com/dyluth/flowlog/pkg/datasvc"
)

// OutputFormat specifies how to format the record list output.
type OutputFormat string

const (
	// OutputFormatDefault uses a table with truncated titles
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs complete records as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"
)

// Store is the part of the data service the catalog reads from.
type Store interface {
	ScanRecordIDs(ctx context.Context) ([]string, error)
	GetRecord(ctx context.Context, recordID string) (*datasvc.Record, error)
	DerivedRecords(ctx context.Context, recordID string) ([]string, error)
}

// ListRecords retrieves every record in the namespace that matches filters
// and writes them oldest first. Records that fail to load are skipped with
// a warning on stderr.
func ListRecords(ctx context.Context, store Store, namespace string, format OutputFormat, filters *filter.Criteria, w io.Writer) error {
	if format != OutputFormatDefault && format != OutputFormatJSONL {
		return fmt.Errorf("unknown output format: %s", format)
	}

	ids, err := store.ScanRecordIDs(ctx)
	if err != nil {
		return err
	}

	var records []*datasvc.Record
	for _, id := range ids {
		r, err := store.GetRecord(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Skipping unreadable record: id=%s (error: %v)\n", id, err)
			continue
		}
		if !filters.Matches(r) {
			continue
		}
		records = append(records, r)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAtMs < records[j].CreatedAtMs
	})

	switch format {
	case OutputFormatJSONL:
		if err := FormatJSONL(w, records); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
	default:
		FormatTable(w, records, namespace)
	}
	return nil
}
