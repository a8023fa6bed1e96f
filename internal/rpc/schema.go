package rpc

import (
	"fmt"
	"math"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/store"
)

// FieldType is the wire type a schema field accepts.
type FieldType int

const (
	String FieldType = iota
	Int
	Float
	Bool
)

func (t FieldType) String() string {
	switch t {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	}
	return "unknown"
}

// Field describes one input field of a procedure. Optional fields distinguish
// absent, explicit null, and a value; required fields must carry a value.
type Field struct {
	Type     FieldType
	Required bool
	Enum     []string // String fields only
	Default  any      // applied when the field is absent
}

// Schema is the declarative input contract of a procedure. Unknown input keys
// are ignored.
type Schema map[string]Field

// Validate checks raw decoded JSON input against the schema and returns the
// typed Input. The first violation is reported with the offending field name.
func (s Schema) Validate(raw map[string]any) (Input, error) {
	in := Input{fields: make(map[string]fieldValue, len(s))}
	for name, f := range s {
		v, present := raw[name]
		if !present {
			if f.Required {
				return Input{}, apperr.Validation(name, fmt.Sprintf("field %q is required", name))
			}
			if f.Default != nil {
				in.fields[name] = fieldValue{present: true, value: f.Default}
			}
			continue
		}
		if v == nil {
			if f.Required {
				return Input{}, apperr.Validation(name, fmt.Sprintf("field %q must not be null", name))
			}
			in.fields[name] = fieldValue{present: true, null: true}
			continue
		}
		coerced, err := coerce(name, f, v)
		if err != nil {
			return Input{}, err
		}
		in.fields[name] = fieldValue{present: true, value: coerced}
	}
	return in, nil
}

// coerce checks v against the field type and returns the canonical Go value:
// string, int64, float64 or bool.
func coerce(name string, f Field, v any) (any, error) {
	switch f.Type {
	case String:
		s, ok := v.(string)
		if !ok {
			return nil, apperr.Validation(name, fmt.Sprintf("field %q must be a string", name))
		}
		if len(f.Enum) > 0 && !contains(f.Enum, s) {
			return nil, apperr.Validation(name, fmt.Sprintf("field %q must be one of %v", name, f.Enum))
		}
		return s, nil
	case Int:
		switch n := v.(type) {
		case float64:
			if n != math.Trunc(n) {
				return nil, apperr.Validation(name, fmt.Sprintf("field %q must be an integer", name))
			}
			return int64(n), nil
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		}
		return nil, apperr.Validation(name, fmt.Sprintf("field %q must be an integer", name))
	case Float:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
		return nil, apperr.Validation(name, fmt.Sprintf("field %q must be a number", name))
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, apperr.Validation(name, fmt.Sprintf("field %q must be a boolean", name))
		}
		return b, nil
	}
	return nil, apperr.Validation(name, fmt.Sprintf("field %q has an unknown type", name))
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

type fieldValue struct {
	present bool
	null    bool
	value   any
}

// Input is validated procedure input. Accessors return tri-state fields so
// handlers can tell absent from null from a value.
type Input struct {
	fields map[string]fieldValue
}

// Has reports whether the field was supplied (including explicit null).
func (in Input) Has(name string) bool {
	return in.fields[name].present
}

// Str returns a string field as a tri-state.
func (in Input) Str(name string) store.Field[string] {
	f := in.fields[name]
	if !f.present {
		return store.Field[string]{}
	}
	if f.null {
		return store.Null[string]()
	}
	s, _ := f.value.(string)
	return store.Set(s)
}

// Int returns an integer field as a tri-state.
func (in Input) Int(name string) store.Field[int] {
	f := in.fields[name]
	if !f.present {
		return store.Field[int]{}
	}
	if f.null {
		return store.Null[int]()
	}
	n, _ := f.value.(int64)
	return store.Set(int(n))
}

// Float returns a float field as a tri-state.
func (in Input) Float(name string) store.Field[float64] {
	f := in.fields[name]
	if !f.present {
		return store.Field[float64]{}
	}
	if f.null {
		return store.Null[float64]()
	}
	n, _ := f.value.(float64)
	return store.Set(n)
}

// Bool returns a boolean field as a tri-state.
func (in Input) Bool(name string) store.Field[bool] {
	f := in.fields[name]
	if !f.present {
		return store.Field[bool]{}
	}
	if f.null {
		return store.Null[bool]()
	}
	b, _ := f.value.(bool)
	return store.Set(b)
}

// Text returns the string value of a field, or "" when absent or null.
func (in Input) Text(name string) string {
	f := in.fields[name]
	s, _ := f.value.(string)
	return s
}

// TextPtr returns the string value of a field, or nil when absent or null.
func (in Input) TextPtr(name string) *string {
	f := in.fields[name]
	if !f.present || f.null {
		return nil
	}
	s, _ := f.value.(string)
	return &s
}

// ID returns the int64 value of a field, or 0 when absent or null.
func (in Input) ID(name string) int64 {
	f := in.fields[name]
	n, _ := f.value.(int64)
	return n
}
