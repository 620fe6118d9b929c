package classify

import (
	"reflect"
	"strings"
)

// Rule is a named exclusion predicate. A variable matched by any rule is
// left out of the record.
type Rule struct {
	Name  string
	Match func(c *Classifier, name string, value any) bool
}

// Exclusion rule names, in evaluation order.
const (
	RulePrivateName       = "private-name"
	RuleStopword          = "stopword"
	RuleCollaboratorNoise = "collaborator-noise"
	RuleDataType          = "data-type"
	RuleStatelessKind     = "stateless-kind"
	RuleCallableHelper    = "callable-helper"
)

// Stopwords are bookkeeping names from the training loop itself.
var Stopwords = []string{
	"checkpoint", "self", "local_vars", "model_dict", "model_hyperparameters",
	"i", "image", "key", "value",
}

// OptimizerAliases are the names under which an optimizer is recognised.
var OptimizerAliases = []string{"optimizer", "optim", "optim_", "optimizer_"}

var collaboratorMarkers = []string{"datafed", "globus"}

var reflectType = reflect.TypeOf((*reflect.Type)(nil)).Elem()

// DefaultRules returns the exclusion rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: RulePrivateName, Match: func(_ *Classifier, name string, _ any) bool {
			return strings.HasPrefix(name, "_")
		}},
		{Name: RuleStopword, Match: func(_ *Classifier, name string, _ any) bool {
			return foldedIn(name, Stopwords)
		}},
		{Name: RuleCollaboratorNoise, Match: func(_ *Classifier, name string, _ any) bool {
			lower := strings.ToLower(name)
			for _, m := range collaboratorMarkers {
				if strings.Contains(lower, m) {
					return true
				}
			}
			return false
		}},
		{Name: RuleDataType, Match: func(_ *Classifier, _ string, value any) bool {
			if value == nil {
				return false
			}
			return strings.Contains(strings.ToLower(reflect.TypeOf(value).String()), "data")
		}},
		{Name: RuleStatelessKind, Match: func(c *Classifier, _ string, value any) bool {
			return c.stateless(value)
		}},
		{Name: RuleCallableHelper, Match: func(c *Classifier, name string, value any) bool {
			if _, ok := value.(Callable); !ok {
				return false
			}
			return !c.IsBlock(name) && !IsOptimizerName(name)
		}},
	}
}

// stateless reports values that carry no training state: nil, types,
// functions and bound methods, and registered collaborator handles.
func (c *Classifier) stateless(value any) bool {
	if value == nil {
		return true
	}
	t := reflect.TypeOf(value)
	if t.Implements(reflectType) {
		return true
	}
	if _, ok := c.handleTypes[t]; ok {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Func:
		return true
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// IsOptimizerName reports whether name case-folds to an optimizer alias.
func IsOptimizerName(name string) bool {
	return foldedIn(name, OptimizerAliases)
}

func foldedIn(name string, set []string) bool {
	for _, s := range set {
		if strings.EqualFold(name, s) {
			return true
		}
	}
	return false
}
