package classify

// Tag is the classification assigned to one variable.
type Tag int

const (
	Ignored Tag = iota
	ModelArchitecture
	OptimizerState
	Hyperparameter
	TensorValue
	PathLike
	NestedObject
	ShortList
	LongListIgnored
	Dict
	Primitive
	Unserializable
)

var tagNames = [...]string{
	Ignored:           "ignored",
	ModelArchitecture: "model-architecture",
	OptimizerState:    "optimizer",
	Hyperparameter:    "hyperparameter",
	TensorValue:       "tensor",
	PathLike:          "path-like",
	NestedObject:      "nested-object",
	ShortList:         "short-list",
	LongListIgnored:   "long-list-ignored",
	Dict:              "dict",
	Primitive:         "primitive",
	Unserializable:    "unserializable",
}

func (t Tag) String() string {
	if t < 0 || int(t) >= len(tagNames) {
		return "unknown"
	}
	return tagNames[t]
}
