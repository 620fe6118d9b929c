package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/dyluth/flowlog/internal/catalog"
	"github.com/dyluth/flowlog/internal/filter"
	"github.com/dyluth/flowlog/internal/printer"
	"github.com/dyluth/flowlog/internal/resolver"
	"github.com/dyluth/flowlog/internal/timespec"
	"github.com/spf13/cobra"
)

var (
	recordsOutputFormat string
	recordsSince        string
	recordsUntil        string
	recordsTitle        string
	recordsCollection   string
)

var recordsCmd = &cobra.Command{
	Use:   "records [RECORD_ID]",
	Short: "Inspect data service records with filtering",
	Long: `Inspect data service records in list or get mode.

List Mode (no RECORD_ID):
  Displays records matching filters as a table or JSONL stream.

Get Mode (with RECORD_ID):
  Displays a single record as pretty-printed JSON.
  Supports short IDs (e.g., "3f2a9c" instead of "d/3f2a9c...").

Output Formats (list mode only):
  default - Human-readable table with ID, Collection, Title, Deps and File
  jsonl   - Line-delimited JSON, one record per line

Filters (list mode only):
  --since       - Records created after this time
  --until       - Records created before this time
  --title       - Title glob pattern ("epoch-*", "*.ipynb")
  --collection  - Exact collection name

Examples:
  # List all records
  flowlog records

  # Checkpoints from the last two hours
  flowlog records --title="epoch-*" --since=2h

  # Pipe to jq
  flowlog records --output=jsonl | jq '.metadata'

  # Show one record by short ID
  flowlog records 3f2a9c`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRecords,
}

func init() {
	recordsCmd.Flags().StringVarP(&recordsOutputFormat, "output", "o", "default", "Output format: default or jsonl (ignored in get mode)")
	recordsCmd.Flags().StringVar(&recordsSince, "since", "", "Show records after time (duration or RFC3339)")
	recordsCmd.Flags().StringVar(&recordsUntil, "until", "", "Show records before time (duration or RFC3339)")
	recordsCmd.Flags().StringVar(&recordsTitle, "title", "", "Filter by title (glob pattern)")
	recordsCmd.Flags().StringVar(&recordsCollection, "collection", "", "Filter by collection (exact match)")
	rootCmd.AddCommand(recordsCmd)
}

func runRecords(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	isGetMode := len(args) > 0

	var outputFormat catalog.OutputFormat
	if !isGetMode {
		switch recordsOutputFormat {
		case "default":
			outputFormat = catalog.OutputFormatDefault
		case "jsonl":
			outputFormat = catalog.OutputFormatJSONL
		default:
			return printer.Error(
				"invalid output format",
				fmt.Sprintf("Unknown format: %s", recordsOutputFormat),
				[]string{"Valid formats: default, jsonl"},
			)
		}
	}

	_, client, err := connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if isGetMode {
		fullID, err := resolveID(ctx, client, args[0])
		if err != nil {
			return err
		}

		if err := catalog.GetRecord(ctx, client, fullID, os.Stdout); err != nil {
			if catalog.IsNotFound(err) {
				return printer.Error(
					fmt.Sprintf("record '%s' not found", fullID),
					"The record was resolved but could not be fetched.",
					[]string{"It may have been removed. Try again."},
				)
			}
			return fmt.Errorf("failed to get record: %w", err)
		}
		return nil
	}

	sinceMS, untilMS, err := timespec.ParseRange(recordsSince, recordsUntil)
	if err != nil {
		return printer.Error(
			"invalid time filter",
			err.Error(),
			[]string{"Use duration format like '1h30m' or RFC3339 like '2025-10-29T13:00:00Z'"},
		)
	}

	filters := &filter.Criteria{
		SinceTimestampMs: sinceMS,
		UntilTimestampMs: untilMS,
		TitleGlob:        recordsTitle,
		Collection:       recordsCollection,
	}

	if err := catalog.ListRecords(ctx, client, client.Namespace(), outputFormat, filters, os.Stdout); err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}
	return nil
}

// resolveID expands a short record ID, printing candidates when it is
// ambiguous.
func resolveID(ctx context.Context, store resolver.Store, shortID string) (string, error) {
	fullID, err := resolver.ResolveRecordID(ctx, store, shortID)
	if err == nil {
		return fullID, nil
	}

	if resolver.IsNotFoundError(err) {
		return "", printer.Error(
			fmt.Sprintf("record with ID '%s' not found", shortID),
			"The specified record does not exist in this namespace.",
			[]string{"List all records:\n  flowlog records"},
		)
	}
	if resolver.IsAmbiguousError(err) {
		ambigErr := err.(*resolver.AmbiguousError)
		fmt.Fprintln(os.Stderr, resolver.FormatAmbiguousError(ambigErr))
		return "", fmt.Errorf("ambiguous short ID")
	}
	return "", fmt.Errorf("failed to resolve record ID: %w", err)
}
