package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/dyluth/flowlog/internal/catalog"
	"github.com/dyluth/flowlog/internal/printer"
	"github.com/spf13/cobra"
)

var lineageCmd = &cobra.Command{
	Use:   "lineage RECORD_ID",
	Short: "Show what a record was derived from and what uses it",
	Long: `Show the direct lineage of a record.

"Derived from" lists the notebook and dataset records a checkpoint depends on.
"Used by" lists the records that declared this record as a dependency.

Examples:
  flowlog lineage 3f2a9c`,
	Args: cobra.ExactArgs(1),
	RunE: runLineage,
}

func init() {
	rootCmd.AddCommand(lineageCmd)
}

func runLineage(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	_, client, err := connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	fullID, err := resolveID(ctx, client, args[0])
	if err != nil {
		return err
	}

	lineage, err := catalog.GetLineage(ctx, client, fullID)
	if err != nil {
		if catalog.IsNotFound(err) {
			return printer.Error(
				fmt.Sprintf("record '%s' not found", fullID),
				"The record was resolved but could not be fetched.",
				[]string{"It may have been removed. Try again."},
			)
		}
		return fmt.Errorf("failed to get lineage: %w", err)
	}

	catalog.FormatLineage(os.Stdout, lineage)
	return nil
}
