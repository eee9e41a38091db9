package crudset

import "fmt"

// ErrInvalidPage means a negative page index was requested.
type ErrInvalidPage struct {
	Page int
}

func (e *ErrInvalidPage) Error() string {
	return fmt.Sprintf("invalid page index %d", e.Page)
}
