package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/flowlog/internal/printer"
	"github.com/spf13/cobra"
)

var datasetCollection string

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Manage dataset records",
}

var datasetPushCmd = &cobra.Command{
	Use:   "push PATH...",
	Short: "Upload dataset files or directories",
	Long: `Upload dataset files as records of the configured collection.

Directories are walked recursively. A file whose content is already recorded
under the same title is not uploaded again; its existing record id is printed.

One record id is printed per line, in the order the files were found.

Examples:
  flowlog dataset push data/train.csv data/test.csv
  flowlog dataset push data/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDatasetPush,
}

func init() {
	datasetPushCmd.Flags().StringVar(&datasetCollection, "collection", "", "Collection to upload to (defaults to the configured one)")
	datasetCmd.AddCommand(datasetPushCmd)
	rootCmd.AddCommand(datasetCmd)
}

func runDatasetPush(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, client, err := connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	collection := datasetCollection
	if collection == "" {
		collection = cfg.Collection
	}

	ids, err := client.UploadDataset(ctx, collection, args)
	if err != nil {
		return printer.ErrorWithContext(
			"dataset upload failed",
			err.Error(),
			map[string]string{"collection": collection},
			[]string{"Check that every path exists and is readable"},
		)
	}

	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}
