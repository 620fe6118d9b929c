package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/dyluth/flowlog/internal/printer"
	"github.com/dyluth/flowlog/internal/viewer"
	"github.com/spf13/cobra"
)

var (
	checkpointsOutputFormat string
	checkpointsCollection   string
	checkpointsAll          bool
)

var checkpointsCmd = &cobra.Command{
	Use:   "checkpoints",
	Short: "Compare the checkpoints of a collection",
	Long: `Lay out the checkpoints of a collection side by side.

Each row is one checkpoint with its metadata flattened into dotted columns.
Notebook and dataset records are hidden, and checkpoints that differ from an
earlier one only in id, title or timestamps are collapsed.

Output Formats:
  table - Text table (default)
  json  - JSON array of rows

Examples:
  flowlog checkpoints
  flowlog checkpoints --collection mnist --output json | jq '.[].id'
  flowlog checkpoints --all`,
	Args: cobra.NoArgs,
	RunE: runCheckpoints,
}

func init() {
	checkpointsCmd.Flags().StringVarP(&checkpointsOutputFormat, "output", "o", "table", "Output format: table or json")
	checkpointsCmd.Flags().StringVar(&checkpointsCollection, "collection", "", "Collection to show (defaults to the configured one)")
	checkpointsCmd.Flags().BoolVar(&checkpointsAll, "all", false, "Show every record and column")
	rootCmd.AddCommand(checkpointsCmd)
}

func runCheckpoints(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if checkpointsOutputFormat != "table" && checkpointsOutputFormat != "json" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", checkpointsOutputFormat),
			[]string{"Valid formats: table, json"},
		)
	}

	cfg, client, err := connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	collection := checkpointsCollection
	if collection == "" {
		collection = cfg.Collection
	}

	opts := viewer.DefaultOptions()
	if checkpointsAll {
		opts = viewer.Options{}
	}

	table, err := viewer.Checkpoints(ctx, client, collection, opts)
	if err != nil {
		return err
	}

	if checkpointsOutputFormat == "json" {
		return table.RenderJSON(os.Stdout)
	}
	if len(table.Rows) == 0 {
		printer.Info("No checkpoints found in collection '%s'\n", collection)
		return nil
	}
	return table.RenderTable(os.Stdout)
}
