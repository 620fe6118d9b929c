package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dyluth/flowlog/pkg/datasvc"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "flowlog.yml"

// Environment variables overriding the file.
const (
	EnvRedisURL   = "FLOWLOG_REDIS_URL"
	EnvNamespace  = "FLOWLOG_NAMESPACE"
	EnvCollection = "FLOWLOG_COLLECTION"
)

const (
	defaultEndpoint        = "local"
	defaultLogFile         = "flowlog.log"
	defaultMaxAttempts     = 3
	defaultInitialInterval = 100 * time.Millisecond
)

// FlowlogConfig represents the top-level flowlog.yml configuration
type FlowlogConfig struct {
	Version    string `yaml:"version"`
	RedisURL   string `yaml:"redis_url"`
	Namespace  string `yaml:"namespace"`
	Collection string `yaml:"collection"`

	Endpoint       string `yaml:"endpoint,omitempty"`         // access policy key, default "local"
	LocalModelPath string `yaml:"local_model_path,omitempty"` // directory for local checkpoint artefacts
	NotebookID     string `yaml:"notebook_id,omitempty"`      // existing notebook record, used as-is
	ScriptPath     string `yaml:"script_path,omitempty"`

	Datasets   []string `yaml:"datasets,omitempty"`
	InputShape []int    `yaml:"input_shape,omitempty"`

	Logging     *bool  `yaml:"logging,omitempty"` // diagnostic log for dropped values, default true
	LogFilePath string `yaml:"log_file_path,omitempty"`

	Retry  *RetryConfig        `yaml:"retry,omitempty"`
	Access map[string][]string `yaml:"access,omitempty"` // endpoint -> allowed roots
}

// RetryConfig bounds data-service retries on transient failures
type RetryConfig struct {
	MaxAttempts     *int   `yaml:"max_attempts,omitempty"`
	InitialInterval string `yaml:"initial_interval,omitempty"`
}

// Validate performs strict validation on the configuration and fills in defaults
func (c *FlowlogConfig) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.RedisURL == "" {
		return fmt.Errorf("redis_url is required")
	}
	if c.Namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	if c.Collection == "" {
		return fmt.Errorf("collection is required")
	}

	// notebook_id is used verbatim as a dependency
	if c.NotebookID != "" && !datasvc.IsRecordID(c.NotebookID) {
		return fmt.Errorf("notebook_id must be a record id (d/<uuid>), got %q", c.NotebookID)
	}

	for i, d := range c.InputShape {
		if d <= 0 {
			return fmt.Errorf("input_shape[%d] must be > 0, got %d", i, d)
		}
	}

	if c.Endpoint == "" {
		c.Endpoint = defaultEndpoint
	}

	if c.Logging == nil {
		enabled := true
		c.Logging = &enabled
	}
	if *c.Logging && c.LogFilePath == "" {
		c.LogFilePath = defaultLogFile
	}

	if c.Retry == nil {
		c.Retry = &RetryConfig{}
	}
	if c.Retry.MaxAttempts == nil {
		attempts := defaultMaxAttempts
		c.Retry.MaxAttempts = &attempts
	}
	if *c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1, got %d", *c.Retry.MaxAttempts)
	}
	if c.Retry.InitialInterval != "" {
		d, err := time.ParseDuration(c.Retry.InitialInterval)
		if err != nil {
			return fmt.Errorf("invalid retry.initial_interval: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("retry.initial_interval must be positive, got %s", d)
		}
	}

	for endpoint, roots := range c.Access {
		if len(roots) == 0 {
			return fmt.Errorf("access '%s': at least one allowed root is required", endpoint)
		}
		for _, root := range roots {
			if !filepath.IsAbs(root) {
				return fmt.Errorf("access '%s': allowed root must be absolute: %s", endpoint, root)
			}
		}
	}

	return nil
}

// ApplyEnv overrides connection settings from the environment.
func (c *FlowlogConfig) ApplyEnv() {
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv(EnvNamespace); v != "" {
		c.Namespace = v
	}
	if v := os.Getenv(EnvCollection); v != "" {
		c.Collection = v
	}
}

// RetryPolicy converts the retry section for the data-service client.
// Call after Validate.
func (c *FlowlogConfig) RetryPolicy() datasvc.RetryPolicy {
	p := datasvc.DefaultRetryPolicy()
	if c.Retry == nil {
		return p
	}
	if c.Retry.MaxAttempts != nil {
		p.MaxAttempts = *c.Retry.MaxAttempts
	}
	if d, err := time.ParseDuration(c.Retry.InitialInterval); err == nil && d > 0 {
		p.InitialInterval = d
	}
	return p
}

// DiagnosticLogPath returns where dropped values are logged, or "" when
// logging is disabled.
func (c *FlowlogConfig) DiagnosticLogPath() string {
	if c.Logging != nil && !*c.Logging {
		return ""
	}
	return c.LogFilePath
}

// Default returns the configuration written by `flowlog init`.
func Default(collection string) *FlowlogConfig {
	return &FlowlogConfig{
		Version:        "1.0",
		RedisURL:       "redis://localhost:6379/0",
		Namespace:      "default",
		Collection:     collection,
		Endpoint:       defaultEndpoint,
		LocalModelPath: "models",
		LogFilePath:    defaultLogFile,
	}
}

// Load reads flowlog.yml from the specified path, applies environment
// overrides and validates the result
func Load(path string) (*FlowlogConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config FlowlogConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
