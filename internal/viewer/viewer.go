// Package viewer lays out the checkpoints of a collection as comparable rows.
package viewer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/dyluth/flowlog/pkg/datasvc"
	"github.com/olekukonko/tablewriter"
)

// Options control which records and columns are shown.
type Options struct {
	// ExcludeMetadata names top-level metadata sections left out of every row.
	ExcludeMetadata []string
	// ExcludedKeys drops whole records whose metadata has any of these
	// top-level keys (notebook and dataset records).
	ExcludedKeys []string
	// NonUnique keys are ignored when looking for duplicate rows. A key
	// matches a column of the same name or ending in "."+key.
	NonUnique []string
}

// DefaultOptions hides system information and non-checkpoint records.
func DefaultOptions() Options {
	return Options{
		ExcludeMetadata: []string{"System Information"},
		ExcludedKeys:    []string{"script", "dataset"},
		NonUnique:       []string{"id", "timestamp", "total_time"},
	}
}

// Lister lists the records of a collection, oldest first.
type Lister interface {
	ListRecords(ctx context.Context, collection string) ([]*datasvc.Record, error)
}

// Row is one checkpoint with flattened metadata keys.
type Row map[string]any

// Table is the result of Checkpoints.
type Table struct {
	Columns []string
	Rows    []Row
}

// Checkpoints builds the comparison table for a collection.
func Checkpoints(ctx context.Context, svc Lister, collection string, opts Options) (*Table, error) {
	records, err := svc.ListRecords(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list records in %s: %w", collection, err)
	}

	t := &Table{}
	columns := map[string]struct{}{}
	for _, r := range records {
		if hasAny(r.Metadata, opts.ExcludedKeys) {
			continue
		}

		row := Row{"id": r.ID, "title": r.Title}
		for k, v := range r.Metadata {
			if contains(opts.ExcludeMetadata, k) {
				continue
			}
			Flatten(k, v, row)
		}

		if t.duplicate(row, opts.NonUnique) {
			continue
		}
		t.Rows = append(t.Rows, row)
		for k := range row {
			columns[k] = struct{}{}
		}
	}

	for k := range columns {
		t.Columns = append(t.Columns, k)
	}
	sort.Slice(t.Columns, func(i, j int) bool {
		return columnLess(t.Columns[i], t.Columns[j])
	})
	return t, nil
}

// Flatten writes value into out, joining nested map keys with ".".
func Flatten(prefix string, value any, out map[string]any) {
	m, ok := value.(map[string]any)
	if !ok || len(m) == 0 {
		out[prefix] = value
		return
	}
	for k, v := range m {
		Flatten(prefix+"."+k, v, out)
	}
}

// duplicate reports whether row equals an earlier row once the non-unique
// columns are ignored.
func (t *Table) duplicate(row Row, nonUnique []string) bool {
	key := uniqueFields(row, nonUnique)
	for _, prev := range t.Rows {
		if reflect.DeepEqual(uniqueFields(prev, nonUnique), key) {
			return true
		}
	}
	return false
}

func uniqueFields(row Row, nonUnique []string) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		if k == "title" || isNonUnique(k, nonUnique) {
			continue
		}
		out[k] = v
	}
	return out
}

func isNonUnique(column string, nonUnique []string) bool {
	for _, n := range nonUnique {
		if column == n || strings.HasSuffix(column, "."+n) {
			return true
		}
	}
	return false
}

// RenderTable writes the rows as a text table.
func (t *Table) RenderTable(w io.Writer) error {
	table := tablewriter.NewWriter(w)

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	table.Header(header...)

	for _, row := range t.Rows {
		cells := make([]any, len(t.Columns))
		for i, c := range t.Columns {
			cells[i] = cell(row[c])
		}
		if err := table.Append(cells...); err != nil {
			return fmt.Errorf("failed to add row: %w", err)
		}
	}
	return table.Render()
}

// RenderJSON writes the rows as a JSON array.
func (t *Table) RenderJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	rows := t.Rows
	if rows == nil {
		rows = []Row{}
	}
	return enc.Encode(rows)
}

func cell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any, map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}

// columnLess puts id and title first, then sorts by name.
func columnLess(a, b string) bool {
	rank := func(c string) int {
		switch c {
		case "id":
			return 0
		case "title":
			return 1
		}
		return 2
	}
	if ra, rb := rank(a), rank(b); ra != rb {
		return ra < rb
	}
	return a < b
}

func hasAny(m map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
