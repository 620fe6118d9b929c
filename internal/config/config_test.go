package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dyluth/flowlog/pkg/datasvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *FlowlogConfig {
	return &FlowlogConfig{
		Version:    "1.0",
		RedisURL:   "redis://localhost:6379/0",
		Namespace:  "lab",
		Collection: "runs",
	}
}

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "flowlog.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `version: "1.0"
redis_url: "redis://localhost:6379/0"
namespace: "lab"
collection: "mnist"
local_model_path: "models"
script_path: "train.ipynb"
datasets: ["data/train.csv"]
input_shape: [1, 28, 28]
retry:
  max_attempts: 5
  initial_interval: "250ms"
access:
  cluster: ["/scratch"]
`)

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0", config.Version)
	assert.Equal(t, "mnist", config.Collection)
	assert.Equal(t, []int{1, 28, 28}, config.InputShape)
	assert.Equal(t, []string{"data/train.csv"}, config.Datasets)
	assert.Equal(t, map[string][]string{"cluster": {"/scratch"}}, config.Access)

	policy := config.RetryPolicy()
	assert.Equal(t, 5, policy.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, policy.InitialInterval)
}

func TestLoad_FileNotFound(t *testing.T) {
	config, err := Load("/nonexistent/flowlog.yml")
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `version: "1.0"
datasets: [unclosed
`)

	config, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoad_InvalidConfiguration(t *testing.T) {
	path := writeConfig(t, `version: "1.0"
namespace: "lab"
collection: "runs"
`)

	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "redis_url is required")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `version: "1.0"
namespace: "lab"
collection: "runs"
`)
	t.Setenv(EnvRedisURL, "redis://cache:6379/1")
	t.Setenv(EnvCollection, "override")

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis://cache:6379/1", config.RedisURL)
	assert.Equal(t, "lab", config.Namespace)
	assert.Equal(t, "override", config.Collection)
}

func TestValidate_Defaults(t *testing.T) {
	config := validConfig()
	require.NoError(t, config.Validate())

	assert.Equal(t, "local", config.Endpoint)
	require.NotNil(t, config.Logging)
	assert.True(t, *config.Logging)
	assert.Equal(t, "flowlog.log", config.DiagnosticLogPath())
	require.NotNil(t, config.Retry.MaxAttempts)
	assert.Equal(t, 3, *config.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, config.RetryPolicy().InitialInterval)
}

func TestValidate_LoggingDisabled(t *testing.T) {
	config := validConfig()
	disabled := false
	config.Logging = &disabled
	config.LogFilePath = "custom.log"

	require.NoError(t, config.Validate())
	assert.Empty(t, config.DiagnosticLogPath())
}

func TestValidate_Errors(t *testing.T) {
	zero := 0

	tests := []struct {
		name    string
		mutate  func(c *FlowlogConfig)
		wantErr string
	}{
		{"unsupported version", func(c *FlowlogConfig) { c.Version = "2.0" }, "unsupported version: 2.0"},
		{"missing namespace", func(c *FlowlogConfig) { c.Namespace = "" }, "namespace is required"},
		{"missing collection", func(c *FlowlogConfig) { c.Collection = "" }, "collection is required"},
		{"non-positive input shape", func(c *FlowlogConfig) { c.InputShape = []int{3, 0} }, "input_shape[1] must be > 0"},
		{"zero attempts", func(c *FlowlogConfig) { c.Retry = &RetryConfig{MaxAttempts: &zero} }, "retry.max_attempts must be >= 1"},
		{"bad interval", func(c *FlowlogConfig) { c.Retry = &RetryConfig{InitialInterval: "soon"} }, "invalid retry.initial_interval"},
		{"negative interval", func(c *FlowlogConfig) { c.Retry = &RetryConfig{InitialInterval: "-1s"} }, "must be positive"},
		{"empty access roots", func(c *FlowlogConfig) { c.Access = map[string][]string{"cluster": nil} }, "at least one allowed root"},
		{"malformed notebook id", func(c *FlowlogConfig) { c.NotebookID = "d/123456" }, "notebook_id must be a record id"},
		{"relative access root", func(c *FlowlogConfig) { c.Access = map[string][]string{"cluster": {"scratch"}} }, "must be absolute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(config)

			err := config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_NotebookID(t *testing.T) {
	config := validConfig()
	config.NotebookID = datasvc.NewRecordID()
	assert.NoError(t, config.Validate())
}

func TestDefault(t *testing.T) {
	config := Default("mnist")
	require.NoError(t, config.Validate())
	assert.Equal(t, "mnist", config.Collection)
	assert.Equal(t, "models", config.LocalModelPath)
}
