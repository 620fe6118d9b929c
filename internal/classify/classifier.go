// Package classify decides how each training variable is represented in a
// checkpoint record.
//
// A Classifier first runs an ordered list of named exclusion rules, then
// assigns the first matching tag in a fixed priority order and prepares the
// value for that tag through the serialization fallback chain.
package classify

import (
	"fmt"
	"log"
	"reflect"
	"strings"

	"github.com/dyluth/flowlog/internal/serialize"
)

// MaxListChars bounds the summed printed length of a list's elements.
// Longer lists are dropped.
const MaxListChars = 1000

// Variable is one named value from the caller's scope.
type Variable struct {
	Name  string
	Value any
}

// Decision is the classification of one variable together with the value
// prepared for the record.
type Decision struct {
	Name    string
	Tag     Tag
	Rule    string // exclusion rule that matched, when Tag is Ignored
	Outcome serialize.Outcome
}

// Classifier holds the context classification depends on. The same inputs
// always produce the same Decision.
type Classifier struct {
	blocks          map[string]struct{}
	hyperparameters map[string]struct{}
	inputShape      []int
	rules           []Rule
	handleTypes     map[reflect.Type]struct{}
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithInputShape sets the shape tensors must be smaller than to be kept.
// Without it tensors outside the hyperparameters are dropped.
func WithInputShape(shape []int) Option {
	return func(c *Classifier) {
		if shape != nil {
			c.inputShape = append([]int{}, shape...)
		}
	}
}

// WithHandles registers collaborator handles; any value of the same dynamic
// type is excluded as stateless.
func WithHandles(handles ...any) Option {
	return func(c *Classifier) {
		for _, h := range handles {
			if h != nil {
				c.handleTypes[reflect.TypeOf(h)] = struct{}{}
			}
		}
	}
}

// WithRules appends extra exclusion rules after the defaults.
func WithRules(rules ...Rule) Option {
	return func(c *Classifier) {
		c.rules = append(c.rules, rules...)
	}
}

// New returns a Classifier for the given block and hyperparameter names.
func New(blockNames, hyperparameterNames []string, opts ...Option) *Classifier {
	c := &Classifier{
		blocks:          toSet(blockNames),
		hyperparameters: toSet(hyperparameterNames),
		rules:           DefaultRules(),
		handleTypes:     map[reflect.Type]struct{}{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify tags a single value. It is the stateless form of Classifier.Classify.
func Classify(name string, value any, blockNames, hyperparameterNames []string, inputShape []int) Tag {
	return New(blockNames, hyperparameterNames, WithInputShape(inputShape)).Classify(name, value).Tag
}

// IsBlock reports whether name is a registered model block.
func (c *Classifier) IsBlock(name string) bool {
	_, ok := c.blocks[name]
	return ok
}

// IsHyperparameter reports whether name is a registered hyperparameter.
func (c *Classifier) IsHyperparameter(name string) bool {
	_, ok := c.hyperparameters[name]
	return ok
}

// Excluded returns the name of the first exclusion rule matching the variable.
func (c *Classifier) Excluded(name string, value any) (string, bool) {
	for _, r := range c.rules {
		if r.Match(c, name, value) {
			return r.Name, true
		}
	}
	return "", false
}

// Classify tags the variable and prepares its record value.
func (c *Classifier) Classify(name string, value any) Decision {
	d := Decision{Name: name}

	if rule, ok := c.Excluded(name, value); ok {
		d.Tag, d.Rule, d.Outcome = Ignored, rule, serialize.Skip()
		return d
	}

	isString := reflect.ValueOf(value).Kind() == reflect.String
	optimizer := IsOptimizerName(name) && !isString

	switch {
	case c.IsBlock(name) && optimizer:
		d.Tag, d.Outcome = OptimizerState, serialize.Chain(SerializeOptimizer(value))

	case c.IsBlock(name):
		arch := SerializeBlock(value)
		for k, v := range ExtractAttributes(value) {
			arch[k] = v
		}
		d.Tag, d.Outcome = ModelArchitecture, serialize.Chain(arch)

	case optimizer:
		d.Tag, d.Outcome = OptimizerState, serialize.Chain(SerializeOptimizer(value))

	case isList(value):
		d.Tag, d.Outcome = c.classifyList(name, value)

	case c.IsHyperparameter(name):
		d.Tag = Hyperparameter
		if t, ok := value.(Tensor); ok && c.inputShape != nil {
			d.Outcome = c.smallTensor(t)
		} else {
			d.Outcome = serialize.Chain(value)
		}

	case isTensor(value):
		d.Tag = TensorValue
		if c.inputShape == nil {
			d.Outcome = serialize.Skip()
		} else {
			d.Outcome = c.smallTensor(value.(Tensor))
		}

	case isPathLike(value):
		d.Tag, d.Outcome = PathLike, serialize.Chain(value.(Location).String())

	case isObject(value) && len(ExtractAttributes(value)) > 0:
		d.Tag, d.Outcome = NestedObject, serialize.Chain(ExtractAttributes(value))

	case isNonEmptyMap(value):
		d.Tag = Dict
		if privateElement(value) {
			d.Outcome = serialize.Skip()
		} else {
			d.Outcome = serialize.Chain(value)
		}

	default:
		d.Tag, d.Outcome = Primitive, serialize.Chain(value)
		if !d.Outcome.Ok() {
			d.Tag = Unserializable
		}
	}
	return d
}

func (c *Classifier) classifyList(name string, value any) (Tag, serialize.Outcome) {
	v := reflect.ValueOf(value)
	total := 0
	for i := 0; i < v.Len(); i++ {
		total += len(sprint(v.Index(i)))
	}
	if total >= MaxListChars {
		log.Printf("[WARN] List in %q is too long to be extracted (%d characters)", name, total)
		return LongListIgnored, serialize.Skip()
	}
	if v.Len() == 1 {
		return ShortList, serialize.Chain(v.Index(0).Interface())
	}
	return ShortList, serialize.Chain(value)
}

// smallTensor keeps a tensor as a nested list only when it is smaller than the input shape.
func (c *Classifier) smallTensor(t Tensor) serialize.Outcome {
	if !ShapeSmaller(t.Shape(), c.inputShape) {
		return serialize.Skip()
	}
	return serialize.Chain(t.List())
}

func isTensor(value any) bool {
	_, ok := value.(Tensor)
	return ok
}

func isList(value any) bool {
	if isTensor(value) {
		return false
	}
	t := reflect.TypeOf(value)
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Slice:
		return t.Elem().Kind() != reflect.Uint8
	case reflect.Array:
		return true
	}
	return false
}

func isPathLike(value any) bool {
	_, ok := value.(Location)
	return ok
}

func isObject(value any) bool {
	if _, ok := value.(Attributer); ok {
		return true
	}
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	return v.Kind() == reflect.Struct
}

func isNonEmptyMap(value any) bool {
	v := reflect.ValueOf(value)
	return v.Kind() == reflect.Map && v.Len() > 0
}

// privateElement inspects the dynamic type of the element stored under the
// smallest key. A type name containing "_" marks the map as internal state.
func privateElement(value any) bool {
	m := reflect.ValueOf(value)
	keys := sortedKeys(m)
	elem := m.MapIndex(keys[0])
	if elem.Kind() == reflect.Interface {
		if elem.IsNil() {
			return false
		}
		elem = elem.Elem()
	}
	return strings.Contains(elem.Type().String(), "_")
}

func sprint(v reflect.Value) string {
	if !v.IsValid() {
		return "<nil>"
	}
	return fmt.Sprint(v.Interface())
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
