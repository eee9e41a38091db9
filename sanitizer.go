package crudset

import "context"

// DataFunc transforms a whole write payload. It receives the payload as it
// stands after earlier sanitizers and returns the payload to hand to the
// next one. The context carries caller-supplied values (acting user and the
// like) and is passed through untouched.
type DataFunc func(ctx context.Context, data Row) (Row, error)

// FieldFunc transforms a single field of a write payload. It sees the full
// payload for context but returns only the new value for its field.
type FieldFunc func(ctx context.Context, data Row, field string) (any, error)

type fieldSanitizer struct {
	field string
	fn    FieldFunc
}

// Sanitizer is an ordered pipeline of transforms applied to write payloads
// before they reach the database. Register transforms with Data and Field,
// then attach the Sanitizer to a Crud. A Sanitizer is built once and is
// safe for concurrent use afterwards; it keeps no per-call state.
type Sanitizer struct {
	table    *Table
	dataFns  []DataFunc
	fieldFns []fieldSanitizer
	buildErr error
}

// NewSanitizer returns an empty Sanitizer for the table.
func NewSanitizer(table *Table) *Sanitizer {
	return &Sanitizer{table: table}
}

// Data registers a whole-payload transform. Transforms run in registration
// order. Returns the Sanitizer for chaining.
func (s *Sanitizer) Data(fn DataFunc) *Sanitizer {
	s.dataFns = append(s.dataFns, fn)
	return s
}

// Field registers a transform for one field. Field transforms run after all
// Data transforms, in registration order, and only when the field is
// present in the payload by then. Registering a field that does not exist
// on the table surfaces as an error from Apply.
func (s *Sanitizer) Field(name string, fn FieldFunc) *Sanitizer {
	if !s.table.HasColumn(name) && s.buildErr == nil {
		s.buildErr = &ErrUnknownField{Table: s.table.Name(), Field: name}
	}
	s.fieldFns = append(s.fieldFns, fieldSanitizer{field: name, fn: fn})
	return s
}

// Apply runs the pipeline over data and returns the transformed payload.
// The input map is never mutated.
func (s *Sanitizer) Apply(ctx context.Context, data Row) (Row, error) {
	if s.buildErr != nil {
		return nil, s.buildErr
	}

	out := make(Row, len(data))
	for k, v := range data {
		out[k] = v
	}

	var err error
	for _, fn := range s.dataFns {
		out, err = fn(ctx, out)
		if err != nil {
			return nil, err
		}
	}
	for _, fs := range s.fieldFns {
		if _, ok := out[fs.field]; !ok {
			continue
		}
		v, err := fs.fn(ctx, out, fs.field)
		if err != nil {
			return nil, err
		}
		out[fs.field] = v
	}
	return out, nil
}
