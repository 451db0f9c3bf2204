package userdb

import (
	"fmt"
	"strings"
)

// Object is a row read from storage or a domain object produced from one.
type Object map[string]any

// Field maps the row column From to the object path To. To may be a dotted
// path ("name.first") addressing nested objects.
type Field struct {
	From string `koanf:"from"`
	To   string `koanf:"to"`
}

// Mapping is an ordered, immutable list of Fields resolved at construction.
// A nil *Mapping means rows are returned as read.
type Mapping struct {
	fields []resolvedField
}

type resolvedField struct {
	Field
	path []string
}

// NewMapping resolves fields into a Mapping. Empty source keys, empty path
// segments and duplicate source keys are rejected.
func NewMapping(fields ...Field) (*Mapping, error) {
	m := &Mapping{fields: make([]resolvedField, 0, len(fields))}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.From == "" || f.To == "" {
			return nil, NewError(ErrnoValidation, fmt.Sprintf("mapping: empty field in %q -> %q", f.From, f.To))
		}
		if _, ok := seen[f.From]; ok {
			return nil, NewError(ErrnoValidation, fmt.Sprintf("mapping: duplicate source field %q", f.From))
		}
		seen[f.From] = struct{}{}
		path := strings.Split(f.To, ".")
		for _, p := range path {
			if p == "" {
				return nil, NewError(ErrnoValidation, fmt.Sprintf("mapping: invalid destination path %q", f.To))
			}
		}
		m.fields = append(m.fields, resolvedField{Field: f, path: path})
	}
	return m, nil
}

// MustMapping is like NewMapping but panics on error. It is meant for
// mappings declared as package variables.
func MustMapping(fields ...Field) *Mapping {
	m, err := NewMapping(fields...)
	if err != nil {
		panic(err)
	}
	return m
}

// Fields returns a copy of the mapping entries in order.
func (m *Mapping) Fields() []Field {
	if m == nil {
		return nil
	}
	out := make([]Field, len(m.fields))
	for i, f := range m.fields {
		out[i] = f.Field
	}
	return out
}

// Swap returns the mapping with source and destination exchanged, for
// turning domain objects back into rows. Dotted destinations become flat
// source keys of the swapped mapping.
func (m *Mapping) Swap() (*Mapping, error) {
	if m == nil {
		return nil, nil
	}
	fields := make([]Field, len(m.fields))
	for i, f := range m.fields {
		fields[i] = Field{From: f.To, To: f.From}
	}
	return NewMapping(fields...)
}

// Apply maps one row. Source keys absent from the row are skipped; present
// keys (including nil values) are written to their destination path.
func (m *Mapping) Apply(row Object) (Object, error) {
	out := make(Object, len(m.fields))
	for _, f := range m.fields {
		v, ok := row[f.From]
		if !ok {
			continue
		}
		if err := setPath(out, f.path, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// setPath stores v at path, creating intermediate objects.
func setPath(obj Object, path []string, v any) error {
	cur := obj
	for i, key := range path[:len(path)-1] {
		next, ok := cur[key]
		if !ok {
			child := Object{}
			cur[key] = child
			cur = child
			continue
		}
		child, ok := next.(Object)
		if !ok {
			return NewTypeError("mapping: cannot set %q: %q is %T, not an object",
				strings.Join(path, "."), strings.Join(path[:i+1], "."), next)
		}
		cur = child
	}
	last := path[len(path)-1]
	if _, ok := cur[last].(Object); ok {
		return NewTypeError("mapping: cannot overwrite object at %q", strings.Join(path, "."))
	}
	cur[last] = v
	return nil
}

// MapRows applies m to every row, preserving order. Without a mapping rows
// are returned unchanged. The first failing row aborts the whole call.
func MapRows(rows []Object, m *Mapping) ([]Object, error) {
	if m == nil {
		return rows, nil
	}
	out := make([]Object, 0, len(rows))
	for _, row := range rows {
		obj, err := m.Apply(row)
		if err != nil {
			return nil, ToError(err)
		}
		out = append(out, obj)
	}
	return out, nil
}

// MapFirstRow maps the first row. An empty result yields an empty Object,
// never nil.
func MapFirstRow(rows []Object, m *Mapping) (Object, error) {
	if len(rows) == 0 {
		return Object{}, nil
	}
	if m == nil {
		return rows[0], nil
	}
	obj, err := m.Apply(rows[0])
	if err != nil {
		return nil, ToError(err)
	}
	return obj, nil
}
