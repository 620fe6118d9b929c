package classify

import "fmt"

// Capabilities a training value can expose. Classification asks what a value
// can do rather than what concrete type it is.

// Stateful is a model block with a state snapshot of named parameters.
// Values in the snapshot are usually Tensors.
type Stateful interface {
	StateDict() map[string]any
}

// Describer adds architecture details (layer sizes, activation names) to a
// block's serialized description.
type Describer interface {
	Architecture() map[string]any
}

// Optimizer exposes its parameter groups. The "params" entry of each group is
// dropped when serialized.
type Optimizer interface {
	ParamGroups() []map[string]any
}

// Tensor is a dense numeric array.
type Tensor interface {
	Shape() []int
	// List returns the contents as nested []any, or a scalar for rank 0.
	List() any
}

// Callable is an invocable helper such as a model or loss function.
type Callable interface {
	Forward(input any) (any, error)
}

// Attributer overrides reflective attribute extraction.
type Attributer interface {
	Attributes() map[string]any
}

// Location is a value recorded by its string form, such as a filesystem
// path or a compute device. Locations are classified as path-like.
type Location interface {
	fmt.Stringer
	Location()
}

// Path is a filesystem path recorded by its string form.
type Path string

func (p Path) String() string { return string(p) }
func (Path) Location()        {}

// Device names a compute device such as "cuda:0".
type Device string

func (d Device) String() string { return string(d) }
func (Device) Location()        {}
