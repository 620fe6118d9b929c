package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyluth/flowlog/internal/filter"
	"github.com/dyluth/flowlog/internal/printer"
	"github.com/dyluth/flowlog/internal/watch"
	"github.com/spf13/cobra"
)

var (
	watchOutputFormat string
	watchTitle        string
	watchCollection   string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Monitor record activity in real time",
	Long: `Stream record creations, file uploads and metadata updates as they occur.

Output Formats:
  default - Human-readable output with timestamps and emojis
  json    - Line-delimited JSON for programmatic processing

Examples:
  # Watch everything in the namespace
  flowlog watch

  # Only checkpoints of one collection
  flowlog watch --collection mnist --title "epoch-*"

  # Export events as JSON
  flowlog watch --output=json > events.jsonl`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	watchCmd.Flags().StringVar(&watchTitle, "title", "", "Filter by title (glob pattern)")
	watchCmd.Flags().StringVar(&watchCollection, "collection", "", "Filter by collection (exact match)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	var outputFormat watch.OutputFormat
	switch watchOutputFormat {
	case "default":
		outputFormat = watch.OutputFormatDefault
	case "json":
		outputFormat = watch.OutputFormatJSON
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, client, err := connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	sub, err := client.SubscribeRecordEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to record events: %w", err)
	}
	defer sub.Close()

	filters := &filter.Criteria{TitleGlob: watchTitle, Collection: watchCollection}
	return watch.StreamRecords(ctx, sub, outputFormat, filters, os.Stdout)
}
