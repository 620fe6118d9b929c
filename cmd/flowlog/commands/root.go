package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/flowlog/internal/config"
	"github.com/dyluth/flowlog/internal/printer"
	"github.com/dyluth/flowlog/pkg/datasvc"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string

	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flowlog",
	Short: "flowlog - provenance logging for model training",
	Long: `flowlog records training checkpoints in a data service together with
their hyperparameters, system information, training notebook and datasets.

Every checkpoint record depends on the notebook and dataset records it was
produced from, so the lineage of a model can be traced back to its inputs.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	// Unknown flags are errors
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute runs the root command. Called by main.main().
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", config.DefaultFile, "Path to flowlog.yml")
}

// loadConfig reads the configuration file, rendering a friendly error when it
// is missing or invalid.
func loadConfig() (*config.FlowlogConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"configuration not loaded",
			err.Error(),
			map[string]string{"config": configPath},
			[]string{
				"Create a configuration:\n  flowlog init",
				"Or point at an existing file:\n  flowlog --config <path> ...",
			},
		)
	}
	return cfg, nil
}

// connect loads the configuration and opens a verified data service client.
// The caller closes the client.
func connect(ctx context.Context) (*config.FlowlogConfig, *datasvc.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client, err := datasvc.NewClient(redisOpts, cfg.Namespace)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create data service client: %w", err)
	}
	client.SetRetryPolicy(cfg.RetryPolicy())

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", cfg.RedisURL),
			map[string]string{"namespace": cfg.Namespace, "error": err.Error()},
			[]string{
				"Check that Redis is running and reachable",
				fmt.Sprintf("Override the address:\n  %s=redis://host:6379/0 flowlog ...", config.EnvRedisURL),
			},
		)
	}

	return cfg, client, nil
}
