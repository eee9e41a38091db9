package crudset

import (
	"context"
	"fmt"
	"strings"
)

// ColType is a coarse classification of a column's database type. It is
// informational; query building and scanning do not depend on it.
type ColType int

const (
	ColUnknown ColType = iota
	ColText
	ColNumeric
	ColBool
	ColTime
	ColUUID
	ColJSON
)

// Column describes a single table column.
type Column struct {
	Name string
	Type ColType
}

// Table describes a database table: its name, ordered columns and primary
// key. Tables are immutable once constructed and are safe to share between
// goroutines. A Table does not own any database state; it is only a
// description that Policy and Crud validate field names against.
type Table struct {
	name       string
	columns    []Column
	index      map[string]int
	primaryKey string
}

// NewTable returns a Table with the given name, primary key and columns.
// The primary key must be one of the columns.
func NewTable(name string, primaryKey string, columns ...Column) (*Table, error) {
	if name == "" {
		return nil, fmt.Errorf("table name is empty")
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s has no columns", name)
	}
	t := &Table{
		name:       name,
		columns:    make([]Column, len(columns)),
		index:      make(map[string]int, len(columns)),
		primaryKey: primaryKey,
	}
	copy(t.columns, columns)
	for i, col := range t.columns {
		if col.Name == "" {
			return nil, fmt.Errorf("table %s has a column with an empty name", name)
		}
		if _, ok := t.index[col.Name]; ok {
			return nil, fmt.Errorf("table %s has duplicate column %s", name, col.Name)
		}
		t.index[col.Name] = i
	}
	if _, ok := t.index[primaryKey]; !ok {
		return nil, &ErrUnknownField{Table: name, Field: primaryKey}
	}
	return t, nil
}

// MustTable is like NewTable but panics on error. It is meant for
// package-level table definitions.
func MustTable(name string, primaryKey string, columns ...Column) *Table {
	t, err := NewTable(name, primaryKey, columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// PrimaryKey returns the name of the primary key column.
func (t *Table) PrimaryKey() string {
	return t.primaryKey
}

// Columns returns the ordered column descriptors.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// ColumnNames returns the ordered column names.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.columns))
	for i, col := range t.columns {
		out[i] = col.Name
	}
	return out
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// LoadTable introspects information_schema on the given connection and
// returns the Table description for name. It reads the public schema.
func LoadTable(ctx context.Context, conn Conn, name string) (*Table, error) {
	q := `
SELECT c.column_name, c.data_type,
       COALESCE(tc.constraint_type = 'PRIMARY KEY', false) AS is_pk
FROM information_schema.columns c
LEFT JOIN information_schema.key_column_usage k
  ON k.table_name = c.table_name AND k.column_name = c.column_name
LEFT JOIN information_schema.table_constraints tc
  ON tc.table_name = k.table_name AND tc.constraint_name = k.constraint_name
WHERE c.table_schema = 'public' AND c.table_name = $1
ORDER BY c.ordinal_position`

	rows, err := conn.QueryContext(ctx, q, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	var primaryKey string
	seen := map[string]struct{}{}
	for rows.Next() {
		var colName, dataType string
		var isPK bool
		if err := rows.Scan(&colName, &dataType, &isPK); err != nil {
			return nil, err
		}
		// The constraint joins can repeat a column that takes part in
		// several constraints.
		if _, ok := seen[colName]; !ok {
			seen[colName] = struct{}{}
			columns = append(columns, Column{Name: colName, Type: mapDataType(dataType)})
		}
		if isPK && primaryKey == "" {
			primaryKey = colName
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", name)
	}
	if primaryKey == "" {
		return nil, fmt.Errorf("table %s has no primary key", name)
	}
	return NewTable(name, primaryKey, columns...)
}

func mapDataType(d string) ColType {
	d = strings.ToLower(d)
	switch {
	case strings.Contains(d, "char"), strings.Contains(d, "text"), strings.Contains(d, "citext"):
		return ColText
	case strings.Contains(d, "int"), strings.Contains(d, "numeric"), strings.Contains(d, "decimal"), strings.Contains(d, "real"), strings.Contains(d, "double"):
		return ColNumeric
	case strings.Contains(d, "bool"):
		return ColBool
	case strings.Contains(d, "time"), strings.Contains(d, "date"):
		return ColTime
	case strings.Contains(d, "uuid"):
		return ColUUID
	case strings.Contains(d, "json"):
		return ColJSON
	default:
		return ColUnknown
	}
}
