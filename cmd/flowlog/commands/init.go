package commands

import (
	"fmt"
	"os"

	"github.com/dyluth/flowlog/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit      bool
	initCollection string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new flowlog project",
	Long: `Initialize a new flowlog project in the current directory.

Creates:
  • flowlog.yml - Project configuration file
  • models/     - Directory for local checkpoint artefacts

The collection defaults to the name of the current directory.

Use --force to replace an existing flowlog.yml.`,
	RunE: runInit,
}

func init() {
	// -f is taken by the global --config flag
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Replace an existing flowlog.yml")
	initCmd.Flags().StringVar(&initCollection, "collection", "", "Collection checkpoints are logged to")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	if err := scaffold.Initialize(dir, initCollection, forceInit); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	scaffold.PrintSuccess()
	return nil
}
