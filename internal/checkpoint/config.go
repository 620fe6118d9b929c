package checkpoint

import (
	"github.com/dyluth/flowlog/internal/access"
	"github.com/dyluth/flowlog/internal/config"
)

// OptionsFromConfig maps a loaded flowlog.yml onto Logger options.
// Block names and system information are left for the caller.
func OptionsFromConfig(cfg *config.FlowlogConfig) Options {
	return Options{
		Collection:     cfg.Collection,
		Endpoint:       cfg.Endpoint,
		LocalModelPath: cfg.LocalModelPath,
		Access:         access.Policy(cfg.Access),
		NotebookID:     cfg.NotebookID,
		ScriptPath:     cfg.ScriptPath,
		Datasets:       cfg.Datasets,
		InputShape:     cfg.InputShape,
		LogFilePath:    cfg.DiagnosticLogPath(),
	}
}
