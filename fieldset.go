package crudset

// FieldSet is a validated, ordered set of column names known to exist on a
// table. Order follows the table's column order so that generated SQL is
// deterministic. FieldSets are values and are never mutated after creation.
type FieldSet struct {
	names []string
	has   map[string]struct{}
}

// resolveFields validates requested against the table's columns and returns
// the FieldSet in table column order. A nil requested list means every
// column on the table.
func resolveFields(t *Table, requested []string) (FieldSet, error) {
	if requested == nil {
		return newFieldSet(t.ColumnNames()), nil
	}
	asked := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		if !t.HasColumn(name) {
			return FieldSet{}, &ErrUnknownField{Table: t.Name(), Field: name}
		}
		asked[name] = struct{}{}
	}
	ordered := make([]string, 0, len(asked))
	for _, col := range t.columns {
		if _, ok := asked[col.Name]; ok {
			ordered = append(ordered, col.Name)
		}
	}
	return newFieldSet(ordered), nil
}

func newFieldSet(names []string) FieldSet {
	f := FieldSet{
		names: names,
		has:   make(map[string]struct{}, len(names)),
	}
	for _, name := range names {
		f.has[name] = struct{}{}
	}
	return f
}

// Contains reports whether name is in the set.
func (f FieldSet) Contains(name string) bool {
	_, ok := f.has[name]
	return ok
}

// List returns the names in order.
func (f FieldSet) List() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Len returns the number of names in the set.
func (f FieldSet) Len() int {
	return len(f.names)
}

// Intersect returns the subset of f that also appears in names, keeping
// f's order. Names unknown to f are ignored.
func (f FieldSet) Intersect(names []string) FieldSet {
	keep := make(map[string]struct{}, len(names))
	for _, name := range names {
		keep[name] = struct{}{}
	}
	out := make([]string, 0, len(f.names))
	for _, name := range f.names {
		if _, ok := keep[name]; ok {
			out = append(out, name)
		}
	}
	return newFieldSet(out)
}

// subsetOf reports whether every name in f is also in other.
func (f FieldSet) subsetOf(other FieldSet) bool {
	for _, name := range f.names {
		if !other.Contains(name) {
			return false
		}
	}
	return true
}
