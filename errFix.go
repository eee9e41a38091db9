package crudset

import "fmt"

// ErrFixConflict means Fix tried to pin a field that is already fixed to a
// different value. Re-fixing to the same value is allowed.
type ErrFixConflict struct {
	Field string
	Old   any
	New   any
}

func (e *ErrFixConflict) Error() string {
	return fmt.Sprintf("field %s is already fixed to %v, cannot re-fix to %v", e.Field, e.Old, e.New)
}
