package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dyluth/flowlog/internal/printer"
	"github.com/dyluth/flowlog/pkg/datasvc"
	"github.com/spf13/cobra"
)

var pullDest string

var pullCmd = &cobra.Command{
	Use:   "pull RECORD_ID",
	Short: "Download the file attached to a record",
	Long: `Download the file attached to a record into a local directory.

The file keeps the name it was uploaded with and is verified against the
recorded checksum.

Examples:
  flowlog pull 3f2a9c
  flowlog pull 3f2a9c --dest /tmp/models`,
	Args: cobra.ExactArgs(1),
	RunE: runPull,
}

func init() {
	pullCmd.Flags().StringVarP(&pullDest, "dest", "d", ".", "Directory to write the file to")
	rootCmd.AddCommand(pullCmd)
}

func runPull(cmd *cobra.Command, args []string) error {
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

	r, err := client.GetRecord(ctx, fullID)
	if err != nil {
		return fmt.Errorf("failed to get record: %w", err)
	}
	if r.FileName == "" {
		return printer.Error(
			fmt.Sprintf("record '%s' has no file", fullID),
			fmt.Sprintf("'%s' was recorded without an attached file.", r.Title),
			[]string{fmt.Sprintf("Inspect the record:\n  flowlog records %s", fullID)},
		)
	}

	printer.Step("Downloading %s (%s)...\n", r.FileName, fullID)
	status, err := client.DownloadFile(ctx, fullID, pullDest)
	if err != nil || status != datasvc.TaskStatusSucceeded {
		explanation := fmt.Sprintf("Transfer finished with status %s.", status)
		if err != nil {
			explanation = err.Error()
		}
		return printer.ErrorWithContext(
			"download failed",
			explanation,
			map[string]string{"record": fullID, "dest": pullDest},
			[]string{"The file may have been removed from the data service"},
		)
	}

	printer.Success("Saved %s\n", filepath.Join(pullDest, r.FileName))
	return nil
}
