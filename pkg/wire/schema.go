package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MissingFieldError is returned when a payload lacks a key its schema
// requires.
type MissingFieldError struct {
	Type  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("wire: %s: missing required field %q", e.Type, e.Field)
}

// Field describes one wire key owned by a schema.
type Field struct {
	Name     string
	Optional bool

	// nested, when set, projects the value (or each element of a list value)
	// through another schema.
	nested *Schema
	list   bool
}

// Required declares a key that must be present.
func Required(name string) Field {
	return Field{Name: name}
}

// Optional declares a key that defaults to the zero value when absent.
func Optional(name string) Field {
	return Field{Name: name, Optional: true}
}

// Nested declares a required key holding an object shaped by s.
func Nested(name string, s Schema) Field {
	return Field{Name: name, nested: &s}
}

// NestedList declares a required key holding a list of objects shaped by s.
func NestedList(name string, s Schema) Field {
	return Field{Name: name, nested: &s, list: true}
}

// Schema is the static field declaration of one model type.
type Schema struct {
	name   string
	fields []Field
}

// NewSchema declares a schema for the named type.
func NewSchema(name string, fields ...Field) Schema {
	return Schema{name: name, fields: append([]Field(nil), fields...)}
}

// Extend returns a schema for a subtype owning the receiver's fields plus its
// own. A subtype field with the same name replaces the inherited one.
func (s Schema) Extend(name string, fields ...Field) Schema {
	merged := make([]Field, 0, len(s.fields)+len(fields))
	for _, f := range s.fields {
		if !containsField(fields, f.Name) {
			merged = append(merged, f)
		}
	}
	merged = append(merged, fields...)
	return Schema{name: name, fields: merged}
}

// Name returns the type name used in errors.
func (s Schema) Name() string {
	return s.name
}

// Fields lists the declared key names, inherited ones first.
func (s Schema) Fields() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Has reports whether the schema declares name.
func (s Schema) Has(name string) bool {
	return containsField(s.fields, name)
}

// Project keeps only the keys of data declared by the schema. It fails on the
// first required key that is absent. A key present with a null value is kept
// and decodes to the zero value.
func (s Schema) Project(data Dict) (Dict, error) {
	out := make(Dict, len(s.fields))
	for _, f := range s.fields {
		v, ok := data[f.Name]
		if !ok {
			if f.Optional {
				continue
			}
			return nil, &MissingFieldError{Type: s.name, Field: f.Name}
		}
		if f.nested != nil && v != nil {
			projected, err := f.projectNested(s.name, v)
			if err != nil {
				return nil, err
			}
			v = projected
		}
		out[f.Name] = v
	}
	return out, nil
}

func (f Field) projectNested(owner string, v any) (any, error) {
	if !f.list {
		obj, ok := asDict(v)
		if !ok {
			return nil, fmt.Errorf("wire: %s.%s: expected object, got %T", owner, f.Name, v)
		}
		return f.nested.Project(obj)
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("wire: %s.%s: expected list, got %T", owner, f.Name, v)
	}
	out := make([]any, 0, len(list))
	for _, el := range list {
		obj, ok := asDict(el)
		if !ok {
			return nil, fmt.Errorf("wire: %s.%s: expected object element, got %T", owner, f.Name, el)
		}
		projected, err := f.nested.Project(obj)
		if err != nil {
			return nil, err
		}
		out = append(out, projected)
	}
	return out, nil
}

// Create projects data onto s and decodes the result into a new T.
func Create[T any](data Dict, s Schema) (T, error) {
	var out T
	projected, err := s.Project(data)
	if err != nil {
		return out, err
	}
	if err := Decode(projected, &out); err != nil {
		return out, fmt.Errorf("wire: decode %s: %w", s.name, err)
	}
	return out, nil
}

// Decode re-encodes d and unmarshals it into dst.
func Decode(d Dict, dst any) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// AsDict serializes v into its wire form. Numbers are kept as json.Number so
// large identifiers survive the trip.
func AsDict(v any) (Dict, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("wire: encode %T: %w", v, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out Dict
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("wire: encode %T: %w", v, err)
	}
	return out, nil
}

func containsField(fields []Field, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}
