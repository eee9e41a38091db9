package crudset

import (
	"fmt"
	"strings"
)

// ErrUnknownField means a field name does not exist as a column on the
// table it was used with.
type ErrUnknownField struct {
	Table string
	Field string
}

func (e *ErrUnknownField) Error() string {
	return fmt.Sprintf("unknown field %s on table %s", e.Field, e.Table)
}

// ErrFieldPermission means a write payload contained a field the policy
// does not allow writing. Fixed is true when the field was rejected
// because a fixed value already pins it.
type ErrFieldPermission struct {
	Table string
	Field string
	Fixed bool
}

func (e *ErrFieldPermission) Error() string {
	if e.Fixed {
		return fmt.Sprintf("field %s on table %s is fixed and cannot be written", e.Field, e.Table)
	}
	return fmt.Sprintf("field %s on table %s is not writeable", e.Field, e.Table)
}

// ErrMissingFields means required fields were absent from a create payload
// after sanitization.
type ErrMissingFields struct {
	Table  string
	Fields []string
}

func (e *ErrMissingFields) Error() string {
	return fmt.Sprintf("missing required fields on table %s: %s", e.Table, strings.Join(e.Fields, ", "))
}
