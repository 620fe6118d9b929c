package record

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"sort"
	"time"

	"github.com/dyluth/flowlog/internal/classify"
	"github.com/dyluth/flowlog/internal/notebook"
	"github.com/dyluth/flowlog/internal/serialize"
)

// ErrConfiguration marks missing mandatory inputs.
var ErrConfiguration = errors.New("configuration error")

// SystemInfo supplies the "System Information" section.
type SystemInfo interface {
	Collect(ctx context.Context) map[string]any
}

// Assembler builds Records from a variable snapshot.
type Assembler struct {
	BlockNames  []string
	InputShape  []int
	Handles     []any  // collaborator handles excluded from the record
	ScriptPath  string // notebook or script; empty leaves out script provenance
	System      SystemInfo
	Diagnostics *serialize.DiagnosticLog

	now      func() time.Time
	username func() string
}

// Assemble classifies every variable and builds the record. vars and
// hyperparameters are both required; extra keys are added to the
// "Model Parameters" section.
func (a *Assembler) Assemble(ctx context.Context, vars []classify.Variable, hyperparameters, extra map[string]any) (*Record, error) {
	if vars == nil {
		return nil, fmt.Errorf("%w: variable snapshot is required", ErrConfiguration)
	}
	if hyperparameters == nil {
		return nil, fmt.Errorf("%w: hyperparameters are required", ErrConfiguration)
	}

	c := classify.New(a.BlockNames, sortedKeys(hyperparameters),
		classify.WithInputShape(a.InputShape),
		classify.WithHandles(a.Handles...),
	)

	r := newRecord()
	for _, v := range vars {
		d := c.Classify(v.Name, v.Value)
		if !d.Outcome.Ok() {
			if d.Outcome.Err != nil {
				r.Omitted = append(r.Omitted, v.Name)
				a.Diagnostics.Omitted(v.Name, v.Value, d.Outcome.Err)
			}
			continue
		}

		switch d.Tag {
		case classify.ModelArchitecture, classify.OptimizerState:
			r.Architecture[v.Name] = d.Outcome.Value
		case classify.Hyperparameter:
			r.Hyperparameters[v.Name] = d.Outcome.Value
		default:
			r.Parameters[v.Name] = d.Outcome.Value
		}
	}

	for _, k := range sortedKeys(extra) {
		out := serialize.Chain(extra[k])
		if !out.Ok() {
			r.Omitted = append(r.Omitted, k)
			a.Diagnostics.Omitted(k, extra[k], out.Err)
			continue
		}
		r.Parameters[k] = out.Value
	}

	if a.ScriptPath != "" {
		md, err := notebook.Read(a.ScriptPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		for k, v := range md.Map() {
			r.Parameters[k] = v
		}
	}

	r.Parameters["user"] = a.currentUser()
	r.Parameters["timestamp"] = a.clock().Format(serialize.TimestampLayout)

	if a.System != nil {
		r.SystemInformation = a.System.Collect(ctx)
	}

	return r, nil
}

// UserClock returns the current user and local timestamp in record form.
func (a *Assembler) UserClock() (string, string) {
	return a.currentUser(), a.clock().Format(serialize.TimestampLayout)
}

func (a *Assembler) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

func (a *Assembler) currentUser() string {
	if a.username != nil {
		return a.username()
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
