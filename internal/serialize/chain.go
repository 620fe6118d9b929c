// Package serialize turns arbitrary values into JSON-representable ones.
//
// Every value goes through the same fallback chain: direct JSON encoding, then
// the value's string form, then omission. The result is an Outcome the caller
// inspects instead of catching failures.
package serialize

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Kind is how a value ended up in the record.
type Kind int

const (
	// Stored means the value encoded as JSON unchanged.
	Stored Kind = iota
	// StoredAsString means the value was replaced by its string form.
	StoredAsString
	// Omitted means the value is left out of the record.
	Omitted
)

func (k Kind) String() string {
	switch k {
	case Stored:
		return "stored"
	case StoredAsString:
		return "stored-as-string"
	case Omitted:
		return "omitted"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Outcome is the result of running a value through the chain.
// Err is set only when the value was omitted because both encodings failed;
// an intentional skip is Omitted with a nil Err.
type Outcome struct {
	Kind  Kind
	Value any
	Err   error
}

// Ok reports whether the outcome carries a value for the record.
func (o Outcome) Ok() bool {
	return o.Kind != Omitted
}

// Skip is an intentional omission that needs no diagnostic.
func Skip() Outcome {
	return Outcome{Kind: Omitted}
}

// ErrInvalidUTF8 is returned when a string form cannot be represented as JSON text.
var ErrInvalidUTF8 = errors.New("string form is not valid UTF-8")

// Chain runs value through direct encoding, then string conversion.
func Chain(value any) Outcome {
	directErr := encodes(value)
	if directErr == nil {
		return Outcome{Kind: Stored, Value: value}
	}

	s, err := StringOf(value)
	if err != nil {
		return Outcome{Kind: Omitted, Err: fmt.Errorf("%v; string conversion: %w", directErr, err)}
	}
	return Outcome{Kind: StoredAsString, Value: s}
}

// Encodable reports whether value encodes as JSON unchanged.
func Encodable(value any) bool {
	return encodes(value) == nil
}

func encodes(value any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while encoding: %v", r)
		}
	}()
	_, err = json.Marshal(value)
	return err
}

// StringOf returns the string form of value. Stringer and error
// implementations are called directly; a panic inside them is reported as an error.
func StringOf(value any) (s string, err error) {
	defer func() {
		if r := recover(); r != nil {
			s, err = "", fmt.Errorf("panic while converting to string: %v", r)
		}
	}()

	switch v := value.(type) {
	case fmt.Stringer:
		s = v.String()
	case error:
		s = v.Error()
	default:
		s = fmt.Sprintf("%v", value)
	}

	if !utf8.ValidString(s) {
		return "", ErrInvalidUTF8
	}
	return s, nil
}
