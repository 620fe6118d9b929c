package classify

import (
	"encoding/json"
	"fmt"
)

// Dense is a row-major float64 Tensor.
type Dense struct {
	shape []int
	data  []float64
}

// NewDense builds a tensor of the given shape over data.
func NewDense(shape []int, data []float64) (*Dense, error) {
	n := 1
	for i, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("negative dimension %d at axis %d", d, i)
		}
		n *= d
	}
	if n != len(data) {
		return nil, fmt.Errorf("shape %v needs %d elements, got %d", shape, n, len(data))
	}
	return &Dense{shape: append([]int(nil), shape...), data: data}, nil
}

// Zeros returns a zero-filled tensor.
func Zeros(shape ...int) *Dense {
	d, err := NewDense(shape, make([]float64, NumElements(shape)))
	if err != nil {
		panic(err)
	}
	return d
}

// Scalar returns a rank-0 tensor.
func Scalar(v float64) *Dense {
	return &Dense{data: []float64{v}}
}

func (d *Dense) Shape() []int {
	return append([]int(nil), d.shape...)
}

// Data returns the flat backing slice.
func (d *Dense) Data() []float64 {
	return d.data
}

func (d *Dense) List() any {
	if len(d.shape) == 0 {
		return d.data[0]
	}
	v, _ := nest(d.shape, d.data)
	return v
}

func (d *Dense) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.List())
}

func (d *Dense) String() string {
	return fmt.Sprintf("tensor(shape=%v)", d.shape)
}

func nest(shape []int, data []float64) (any, []float64) {
	if len(shape) == 1 {
		out := make([]any, shape[0])
		for i := range out {
			out[i] = data[i]
		}
		return out, data[shape[0]:]
	}
	out := make([]any, shape[0])
	for i := range out {
		out[i], data = nest(shape[1:], data)
	}
	return out, data
}

// NumElements is the product of shape's dimensions.
func NumElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// ShapeSmaller reports whether shape is element-wise strictly smaller than
// limit: no more axes, and every dimension below the matching one in limit.
func ShapeSmaller(shape, limit []int) bool {
	if len(shape) > len(limit) {
		return false
	}
	for i, d := range shape {
		if d >= limit[i] {
			return false
		}
	}
	return true
}
