package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dyluth/flowlog/pkg/datasvc"
	"github.com/olekukonko/tablewriter"
)

// FormatTable writes records as a table with columns ID, COLLECTION, TITLE,
// DEPS, FILE and AGE. Returns the number of records formatted.
func FormatTable(w io.Writer, records []*datasvc.Record, namespace string) int {
	if len(records) == 0 {
		fmt.Fprintf(w, "No records found in namespace '%s'\n", namespace)
		return 0
	}

	fmt.Fprintf(w, "Records in namespace '%s':\n\n", namespace)

	table := tablewriter.NewWriter(w)
	table.Header("ID", "COLLECTION", "TITLE", "DEPS", "FILE", "AGE")
	for _, r := range records {
		table.Append(
			formatID(r.ID),
			r.Collection,
			formatTitle(r.Title),
			formatDeps(len(r.Dependencies)),
			formatFile(r.FileName, r.FileSize),
			formatTimestamp(r.CreatedAtMs),
		)
	}
	table.Render()

	noun := "record"
	if len(records) != 1 {
		noun = "records"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(records), noun)

	return len(records)
}

// FormatLineage writes the upstream and downstream neighbours of a record.
func FormatLineage(w io.Writer, l *Lineage) {
	fmt.Fprintf(w, "%s  %s (%s)\n", l.Record.ID, l.Record.Title, l.Record.Collection)

	fmt.Fprintln(w, "\nDerived from:")
	if len(l.Upstream) == 0 {
		fmt.Fprintln(w, "  -")
	}
	for _, r := range l.Upstream {
		fmt.Fprintf(w, "  ↑ %s  %s\n", r.ID, r.Title)
	}

	fmt.Fprintln(w, "\nUsed by:")
	if len(l.Downstream) == 0 {
		fmt.Fprintln(w, "  -")
	}
	for _, r := range l.Downstream {
		fmt.Fprintf(w, "  ↓ %s  %s\n", r.ID, r.Title)
	}
}

// FormatJSONL writes records as line-delimited JSON.
func FormatJSONL(w io.Writer, records []*datasvc.Record) error {
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal record to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatSingleJSON writes a single record as pretty-printed JSON.
func FormatSingleJSON(w io.Writer, r *datasvc.Record) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record to JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// formatID drops the "d/" prefix and keeps the first 8 characters.
func formatID(id string) string {
	id = strings.TrimPrefix(id, datasvc.RecordIDPrefix)
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTitle(title string) string {
	if len(title) > 32 {
		return title[:29] + "..."
	}
	return title
}

func formatDeps(n int) string {
	if n == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}

func formatFile(name string, size int64) string {
	if name == "" {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", name, formatSize(size))
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// formatTimestamp shows the age of a Unix millisecond timestamp, e.g. "2m ago".
func formatTimestamp(timestampMs int64) string {
	if timestampMs == 0 {
		return "-"
	}

	diff := time.Since(time.UnixMilli(timestampMs))
	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
