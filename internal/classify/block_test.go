package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type customAttrs struct{}

func (customAttrs) Attributes() map[string]any { return map[string]any{"kind": "custom"} }

type withSkipped struct {
	Name    string `json:"name,omitempty"`
	Ignored int    `json:"-"`
	Plain   bool
	Fn      func()
}

func TestExtractAttributes(t *testing.T) {
	t.Run("exported encodable fields", func(t *testing.T) {
		attrs := ExtractAttributes(&withSkipped{Name: "x", Ignored: 1, Plain: true, Fn: func() {}})
		assert.Equal(t, map[string]any{"name": "x", "Plain": true}, attrs)
	})

	t.Run("attributer override", func(t *testing.T) {
		assert.Equal(t, map[string]any{"kind": "custom"}, ExtractAttributes(customAttrs{}))
	})

	t.Run("non struct", func(t *testing.T) {
		assert.Empty(t, ExtractAttributes(42))
		assert.Empty(t, ExtractAttributes((*withSkipped)(nil)))
	})
}

func TestSerializeOptimizerWithoutGroups(t *testing.T) {
	out := SerializeOptimizer(struct{}{})
	assert.Equal(t, map[string]any{"type": "struct {}"}, out)
}

func TestSerializeBlockWithoutState(t *testing.T) {
	out := SerializeBlock(customAttrs{})
	assert.Equal(t, "customAttrs", out["type"])
	assert.NotContains(t, out, "parameters")
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "fakeModel", TypeName(&fakeModel{}))
	assert.Equal(t, "Dense", TypeName(Zeros(1)))
	assert.Equal(t, "[]int", TypeName([]int{}))
	assert.Equal(t, "nil", TypeName(nil))
}
