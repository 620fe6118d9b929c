package classify

import (
	"reflect"
	"sort"
	"strings"

	"github.com/dyluth/flowlog/internal/serialize"
)

// SerializeBlock describes a model block: its type, parameter shapes and
// parameter count from the state snapshot, plus any Describer details.
func SerializeBlock(block any) map[string]any {
	out := map[string]any{"type": TypeName(block)}

	if s, ok := block.(Stateful); ok {
		params := map[string]any{}
		total := 0
		for name, v := range s.StateDict() {
			t, ok := v.(Tensor)
			if !ok {
				continue
			}
			shape := t.Shape()
			params[name] = shape
			total += NumElements(shape)
		}
		out["parameters"] = params
		out["num_parameters"] = total
	}

	if d, ok := block.(Describer); ok {
		for k, v := range d.Architecture() {
			out[k] = v
		}
	}
	return out
}

// SerializeOptimizer describes an optimizer by type and parameter-group
// hyperparameters. Parameter tensors are never included.
func SerializeOptimizer(opt any) map[string]any {
	out := map[string]any{"type": TypeName(opt)}

	o, ok := opt.(Optimizer)
	if !ok {
		return out
	}

	groups := make([]map[string]any, 0)
	for _, g := range o.ParamGroups() {
		clean := make(map[string]any, len(g))
		for k, v := range g {
			if k == "params" {
				continue
			}
			clean[k] = v
		}
		groups = append(groups, clean)
	}
	out["param_groups"] = groups
	return out
}

// ExtractAttributes returns the attributes of an object worth recording:
// Attributer output when implemented, otherwise every exported struct field
// whose value encodes as JSON, keyed by its json tag name when it has one.
func ExtractAttributes(obj any) map[string]any {
	if a, ok := obj.(Attributer); ok {
		return a.Attributes()
	}

	attrs := map[string]any{}
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return attrs
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return attrs
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := fieldName(f)
		if name == "" {
			continue
		}
		fv := v.Field(i).Interface()
		if !serialize.Encodable(fv) {
			continue
		}
		attrs[name] = fv
	}
	return attrs
}

func fieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return f.Name
}

// TypeName is the Go type of v without package qualifier or pointer markers.
func TypeName(v any) string {
	if v == nil {
		return "nil"
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// sortedKeys returns the map's keys ordered by their printed form.
func sortedKeys(m reflect.Value) []reflect.Value {
	keys := m.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return sprint(keys[i]) < sprint(keys[j])
	})
	return keys
}
