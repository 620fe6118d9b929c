package record

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dyluth/flowlog/internal/classify"
	"github.com/dyluth/flowlog/internal/serialize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSystem map[string]any

func (s staticSystem) Collect(context.Context) map[string]any { return s }

type toyNet struct{ Hidden int }

func (n *toyNet) StateDict() map[string]any      { return map[string]any{"w": classify.Zeros(2, 3)} }
func (n *toyNet) Forward(input any) (any, error) { return input, nil }
func (n *toyNet) Architecture() map[string]any   { return map[string]any{"layers": 2} }
func (n *toyNet) Attributes() map[string]any     { return map[string]any{"hidden": n.Hidden} }

type adam struct{}

func (adam) ParamGroups() []map[string]any {
	return []map[string]any{{"lr": 0.001, "params": []int{0}}}
}

type unprintable struct{}

func (unprintable) MarshalJSON() ([]byte, error) { return nil, errors.New("no json") }
func (unprintable) String() string              { panic("no string") }

func newTestAssembler(t *testing.T) (*Assembler, string) {
	logPath := filepath.Join(t.TempDir(), "log.txt")
	a := &Assembler{
		BlockNames:  []string{"model", "optimizer"},
		InputShape:  []int{8, 8},
		System:      staticSystem{"CPU": map[string]any{"logical_cores": 4}},
		Diagnostics: serialize.NewDiagnosticLog(logPath),
		now:         func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local) },
		username:    func() string { return "alice" },
	}
	return a, logPath
}

func TestAssemble(t *testing.T) {
	a, _ := newTestAssembler(t)

	vars := []classify.Variable{
		{Name: "model", Value: &toyNet{Hidden: 16}},
		{Name: "optimizer", Value: adam{}},
		{Name: "lr", Value: 0.001},
		{Name: "epochs", Value: 5},
		{Name: "losses", Value: []float64{0.9, 0.5}},
		{Name: "self", Value: "ignored"},
		{Name: "_tmp", Value: 1},
	}

	r, err := a.Assemble(context.Background(), vars, map[string]any{"lr": 0.001}, map[string]any{"note": "baseline"})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"lr": 0.001}, r.Hyperparameters)
	assert.Contains(t, r.Architecture, "model")
	assert.Contains(t, r.Architecture, "optimizer")
	assert.Equal(t, 5, r.Parameters["epochs"])
	assert.Equal(t, []float64{0.9, 0.5}, r.Parameters["losses"])
	assert.Equal(t, "baseline", r.Parameters["note"])
	assert.Equal(t, "alice", r.Parameters["user"])
	assert.Equal(t, "2024-05-06 07:08:09", r.Parameters["timestamp"])
	assert.NotContains(t, r.Parameters, "self")
	assert.NotContains(t, r.Parameters, "_tmp")
	assert.Equal(t, map[string]any{"logical_cores": 4}, r.SystemInformation["CPU"])

	model := r.Architecture["model"].(map[string]any)
	assert.Equal(t, 16, model["hidden"])
	assert.Equal(t, 2, model["layers"])
}

func TestAssemble_DropsLongListWithWarning(t *testing.T) {
	var logs strings.Builder
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	a, _ := newTestAssembler(t)
	a.BlockNames = []string{"encoder"}

	batch := make([]string, 2000)
	for i := range batch {
		batch[i] = "x"
	}
	vars := []classify.Variable{
		{Name: "lr", Value: 0.001},
		{Name: "encoder", Value: &toyNet{Hidden: 4}},
		{Name: "batch", Value: batch},
	}

	r, err := a.Assemble(context.Background(), vars, map[string]any{"lr": 0.001}, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"lr": 0.001}, r.Hyperparameters)
	require.Contains(t, r.Architecture, "encoder")
	assert.Equal(t, 4, r.Architecture["encoder"].(map[string]any)["hidden"])

	assert.NotContains(t, r.Parameters, "batch")
	assert.NotContains(t, r.Hyperparameters, "batch")
	assert.NotContains(t, r.Architecture, "batch")
	assert.Contains(t, logs.String(), `[WARN] List in "batch" is too long to be extracted`)
}

func TestAssemble_ShapeIsFixed(t *testing.T) {
	a, _ := newTestAssembler(t)

	r, err := a.Assemble(context.Background(), []classify.Variable{}, map[string]any{}, nil)
	require.NoError(t, err)

	m := r.Map()
	require.Contains(t, m, SectionModelParameters)
	require.Contains(t, m, SectionSystemInformation)
	params := m[SectionModelParameters].(map[string]any)
	assert.Contains(t, params, SectionHyperparameters)
	assert.Contains(t, params, SectionArchitecture)
	assert.Contains(t, params, "user")
	assert.Contains(t, params, "timestamp")
}

func TestAssemble_ConfigurationErrors(t *testing.T) {
	a, _ := newTestAssembler(t)

	_, err := a.Assemble(context.Background(), nil, map[string]any{}, nil)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = a.Assemble(context.Background(), []classify.Variable{}, nil, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestAssemble_UnserializableIsOmittedWithOneDiagnostic(t *testing.T) {
	a, logPath := newTestAssembler(t)

	vars := []classify.Variable{
		{Name: "weird", Value: unprintable{}},
		{Name: "epochs", Value: 3},
	}
	r, err := a.Assemble(context.Background(), vars, map[string]any{}, nil)
	require.NoError(t, err)

	assert.NotContains(t, r.Parameters, "weird")
	assert.Equal(t, 3, r.Parameters["epochs"])
	assert.Equal(t, []string{"weird"}, r.Omitted)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Could not convert weird to JSON")
}

func TestAssemble_DiagnosticFailureDoesNotFail(t *testing.T) {
	a, _ := newTestAssembler(t)
	a.Diagnostics = serialize.NewDiagnosticLog(filepath.Join(t.TempDir(), "no", "such", "log.txt"))

	r, err := a.Assemble(context.Background(), []classify.Variable{{Name: "weird", Value: unprintable{}}}, map[string]any{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"weird"}, r.Omitted)
}

func TestAssemble_LargeHyperparameterTensorOmitted(t *testing.T) {
	a, logPath := newTestAssembler(t)

	vars := []classify.Variable{
		{Name: "mask", Value: classify.Zeros(16, 16)},
		{Name: "scale", Value: classify.Zeros(2)},
	}
	r, err := a.Assemble(context.Background(), vars, map[string]any{"mask": nil, "scale": nil}, nil)
	require.NoError(t, err)

	assert.NotContains(t, r.Hyperparameters, "mask")
	assert.Equal(t, []any{0.0, 0.0}, r.Hyperparameters["scale"])
	assert.Empty(t, r.Omitted)

	_, err = os.Stat(logPath)
	assert.True(t, os.IsNotExist(err))
}

func TestAssemble_ScriptProvenance(t *testing.T) {
	a, _ := newTestAssembler(t)
	nb := filepath.Join(t.TempDir(), "train.ipynb")
	require.NoError(t, os.WriteFile(nb, []byte("{}"), 0644))
	a.ScriptPath = nb

	r, err := a.Assemble(context.Background(), []classify.Variable{}, map[string]any{}, nil)
	require.NoError(t, err)

	script := r.Parameters["script"].(map[string]any)
	assert.Equal(t, nb, script["path"])
	assert.Len(t, script["checksum"], 32)

	a.ScriptPath = filepath.Join(t.TempDir(), "gone.ipynb")
	_, err = a.Assemble(context.Background(), []classify.Variable{}, map[string]any{}, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestRecordJSONRoundTrips(t *testing.T) {
	a, _ := newTestAssembler(t)
	vars := []classify.Variable{
		{Name: "model", Value: &toyNet{Hidden: 1}},
		{Name: "labels", Value: map[string]int{"a": 1}},
		{Name: "out", Value: classify.Path("/tmp/x")},
	}

	r, err := a.Assemble(context.Background(), vars, map[string]any{}, nil)
	require.NoError(t, err)

	b, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	params := decoded[SectionModelParameters].(map[string]any)
	assert.Equal(t, "/tmp/x", params["out"])
	assert.Equal(t, map[string]any{"a": 1.0}, params["labels"])
}
