package checkpoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtefactState(t *testing.T) {
	state := ArtefactState(
		map[string]any{"encoder": encoder{}, "head": "not stateful"},
		map[string]any{"lr": 0.1, "schedule": func() {}},
	)

	assert.Contains(t, state, "encoder")
	assert.NotContains(t, state, "head")
	assert.Equal(t, 0.1, state["lr"])
	assert.IsType(t, "", state["schedule"])

	enc := state["encoder"].(map[string]any)
	assert.Equal(t, []any{[]any{0.0, 0.0}, []any{0.0, 0.0}}, enc["weight"])
}

func TestWriteReadArtefact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "epoch.ckpt")

	require.NoError(t, WriteArtefact(path, map[string]any{"lr": 0.1, "layers": []any{1.0, 2.0}}))

	state, err := ReadArtefact(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"lr": 0.1, "layers": []any{1.0, 2.0}}, state)

	_, err = ReadArtefact(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
