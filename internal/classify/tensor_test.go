package classify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDense(t *testing.T) {
	d, err := NewDense([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, d.Shape())
	assert.Equal(t, []any{[]any{1.0, 2.0, 3.0}, []any{4.0, 5.0, 6.0}}, d.List())

	_, err = NewDense([]int{2, 2}, []float64{1})
	assert.ErrorContains(t, err, "needs 4 elements")

	_, err = NewDense([]int{-1}, nil)
	assert.ErrorContains(t, err, "negative dimension")
}

func TestDenseJSON(t *testing.T) {
	d, err := NewDense([]int{2}, []float64{0.5, 1.5})
	require.NoError(t, err)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `[0.5, 1.5]`, string(b))

	b, err = json.Marshal(Scalar(3))
	require.NoError(t, err)
	assert.JSONEq(t, `3`, string(b))
}

func TestShapeSmaller(t *testing.T) {
	tests := []struct {
		name  string
		shape []int
		limit []int
		want  bool
	}{
		{"every axis smaller", []int{2, 2}, []int{28, 28}, true},
		{"fewer axes", []int{10}, []int{28, 28}, true},
		{"scalar", nil, []int{1}, true},
		{"equal axis", []int{28, 2}, []int{28, 28}, false},
		{"larger axis", []int{2, 30}, []int{28, 28}, false},
		{"more axes", []int{1, 1, 1}, []int{28, 28}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShapeSmaller(tt.shape, tt.limit))
		})
	}
}

func TestNumElements(t *testing.T) {
	assert.Equal(t, 24, NumElements([]int{2, 3, 4}))
	assert.Equal(t, 1, NumElements(nil))
	assert.Equal(t, 0, NumElements([]int{3, 0}))
}
