package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ExecModel evaluates checkpoints with an external command. The command
// reads {"checkpoint": "<path>"} on stdin and prints a JSON object of
// metrics on stdout.
type ExecModel struct {
	Command []string
	Dir     string

	path string
}

type execInput struct {
	Checkpoint string `json:"checkpoint"`
}

// Load records the checkpoint path passed to the next Evaluate.
func (m *ExecModel) Load(path string) error {
	if len(m.Command) == 0 {
		return errors.New("no evaluation command configured")
	}
	m.path = path
	return nil
}

// Evaluate runs the command against the loaded checkpoint.
func (m *ExecModel) Evaluate(ctx context.Context) (map[string]any, error) {
	if m.path == "" {
		return nil, errors.New("no checkpoint loaded")
	}

	input, err := json.Marshal(execInput{Checkpoint: m.path})
	if err != nil {
		return nil, fmt.Errorf("failed to encode input: %w", err)
	}

	cmd := exec.CommandContext(ctx, m.Command[0], m.Command[1:]...)
	cmd.Dir = m.Dir
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("evaluation command failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var metrics map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &metrics); err != nil {
		return nil, fmt.Errorf("failed to parse evaluation output: %w", err)
	}
	return metrics, nil
}
