package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/flowlog/internal/inference"
	"github.com/dyluth/flowlog/internal/printer"
	"github.com/spf13/cobra"
)

var (
	evaluateCommand []string
	evaluateSkip    int
	evaluateKey     string
	evaluateSaveDir string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate RECORD_ID...",
	Short: "Evaluate checkpoints and store the results on their records",
	Long: `Evaluate checkpoint records in order with an external command.

For each record the checkpoint file is looked up under the configured
local_model_path and downloaded into --save-dir when it is not there. The
command receives {"checkpoint": "<path>"} on stdin and must print a JSON
object of metrics, which is merged into the record's metadata.

Records whose file cannot be found or downloaded are skipped.

Examples:
  flowlog evaluate 3f2a9c 7be014 --cmd python --cmd eval.py
  flowlog evaluate $(flowlog records --output=jsonl | jq -r .id) --skip 1 --cmd ./eval.sh`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringArrayVar(&evaluateCommand, "cmd", nil, "Evaluation command and arguments (repeatable)")
	evaluateCmd.Flags().IntVar(&evaluateSkip, "skip", 0, "Number of leading records to leave unevaluated")
	evaluateCmd.Flags().StringVar(&evaluateKey, "key", inference.DefaultResultKey, "Metadata key results are stored under")
	evaluateCmd.Flags().StringVar(&evaluateSaveDir, "save-dir", "downloads", "Directory for downloaded checkpoints")
	_ = evaluateCmd.MarkFlagRequired("cmd")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if evaluateSkip < 0 {
		return printer.Error(
			"invalid --skip",
			fmt.Sprintf("--skip must be >= 0, got %d", evaluateSkip),
			nil,
		)
	}

	cfg, client, err := connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	ids := make([]string, 0, len(args))
	for _, arg := range args {
		id, err := resolveID(ctx, client, arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	runner := &inference.Runner{
		Svc:       client,
		Model:     &inference.ExecModel{Command: evaluateCommand},
		RootDir:   cfg.LocalModelPath,
		SaveDir:   evaluateSaveDir,
		Skip:      evaluateSkip,
		ResultKey: evaluateKey,
		Progress:  os.Stderr,
	}

	results, err := runner.Run(ctx, ids)
	if err != nil {
		return printer.ErrorWithContext(
			"evaluation failed",
			err.Error(),
			map[string]string{"evaluated": fmt.Sprint(len(results))},
			[]string{"Completed results are already stored; rerun with --skip to continue"},
		)
	}

	for _, r := range results {
		if r.Skipped {
			printer.Warning("%s skipped: %s\n", r.ID, r.Reason)
			continue
		}
		printer.Success("%s evaluated from %s\n", r.ID, filepath.Base(r.Path))
	}
	return nil
}
