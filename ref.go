package crudset

import "fmt"

// Ref declares a joined sub-resource: rows fetched through a Crud get the
// referenced table's readable fields attached under Name. The join is an
// equality between a column of the parent table (ParentCol) and a column of
// the referenced table (RefCol). Refs only ever read; they never widen what
// is writeable.
type Ref struct {
	name      string
	readset   *Policy
	parentCol string
	refCol    string
}

// NewRef returns a Ref attaching readset's table under name in fetched
// rows, joining parentCol on the parent table to refCol on the referenced
// table. The parent column is validated when the Ref is attached to a Crud,
// since the parent table is not known here.
func NewRef(name string, readset *Policy, parentCol, refCol string) (*Ref, error) {
	if name == "" {
		return nil, fmt.Errorf("ref name is empty")
	}
	if readset == nil {
		return nil, fmt.Errorf("ref %s has no readset", name)
	}
	if !readset.Table().HasColumn(refCol) {
		return nil, &ErrUnknownField{Table: readset.Table().Name(), Field: refCol}
	}
	return &Ref{
		name:      name,
		readset:   readset,
		parentCol: parentCol,
		refCol:    refCol,
	}, nil
}

// Name returns the key under which the sub-resource is attached.
func (r *Ref) Name() string {
	return r.name
}

// Readset returns the policy governing which referenced fields are visible.
func (r *Ref) Readset() *Policy {
	return r.readset
}

// ParentCol returns the parent table's join column.
func (r *Ref) ParentCol() string {
	return r.parentCol
}

// RefCol returns the referenced table's join column.
func (r *Ref) RefCol() string {
	return r.refCol
}
