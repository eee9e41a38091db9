package crudset

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Row is a single result record keyed by column name. Expanded references
// appear as nested Rows under their configured names.
type Row map[string]any

// Crud generates create, fetch, update and delete operations for one table,
// restricted by a Policy. Write payloads pass through the attached
// Sanitizer, fetched rows get declared Refs expanded, and the fixed-value
// map is folded into every statement the instance issues.
//
// A Crud is immutable after construction. Fix and the Policy's Narrow
// derive more restricted instances without touching the parent, so a single
// Crud can safely back many concurrent requests.
type Crud struct {
	policy    *Policy
	sanitizer *Sanitizer
	refs      []*Ref
	fixed     map[string]any
	tableAttr string
	tableMap  map[string]string
}

// CrudOption configures NewCrud.
type CrudOption func(*Crud)

// WithSanitizer attaches a sanitizer pipeline run on every write payload.
func WithSanitizer(s *Sanitizer) CrudOption {
	return func(c *Crud) {
		c.sanitizer = s
	}
}

// WithRefs declares joined sub-resources expanded on every read.
func WithRefs(refs ...*Ref) CrudOption {
	return func(c *Crud) {
		c.refs = append(c.refs, refs...)
	}
}

// WithTableAttr adds a key with the table's display name to every returned
// row, including rows of expanded references.
func WithTableAttr(attr string) CrudOption {
	return func(c *Crud) {
		c.tableAttr = attr
	}
}

// WithTableMap remaps table names to display names for WithTableAttr.
func WithTableMap(m map[string]string) CrudOption {
	return func(c *Crud) {
		c.tableMap = make(map[string]string, len(m))
		for k, v := range m {
			c.tableMap[k] = v
		}
	}
}

// NewCrud returns a Crud governed by the given policy. Refs whose parent
// join column does not exist on the policy's table fail with
// *ErrUnknownField.
func NewCrud(policy *Policy, opts ...CrudOption) (*Crud, error) {
	if policy == nil {
		return nil, fmt.Errorf("crud needs a policy")
	}
	c := &Crud{
		policy: policy,
		fixed:  map[string]any{},
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, ref := range c.refs {
		if !policy.Table().HasColumn(ref.ParentCol()) {
			return nil, &ErrUnknownField{Table: policy.Table().Name(), Field: ref.ParentCol()}
		}
	}
	return c, nil
}

// Policy returns the policy governing this Crud.
func (c *Crud) Policy() *Policy {
	return c.policy
}

// Fixed returns a copy of the fixed-value map.
func (c *Crud) Fixed() map[string]any {
	out := make(map[string]any, len(c.fixed))
	for k, v := range c.fixed {
		out[k] = v
	}
	return out
}

// Fix derives a Crud with the given column values pinned. Fixed values are
// merged into every create and constrain every fetch, update and delete.
// Fixing is additive: a child cannot un-fix a parent's field. Re-fixing a
// field to the same value is allowed; a different value fails with
// *ErrFixConflict.
func (c *Crud) Fix(values map[string]any) (*Crud, error) {
	fixed := make(map[string]any, len(c.fixed)+len(values))
	for k, v := range c.fixed {
		fixed[k] = v
	}
	for _, k := range sortedKeys(values) {
		v := values[k]
		if !c.policy.Table().HasColumn(k) {
			return nil, &ErrUnknownField{Table: c.policy.Table().Name(), Field: k}
		}
		if old, ok := fixed[k]; ok && !reflect.DeepEqual(old, v) {
			return nil, &ErrFixConflict{Field: k, Old: old, New: v}
		}
		fixed[k] = v
	}
	clone := *c
	clone.fixed = fixed
	return &clone, nil
}

// Create validates and inserts a row, then reads it back restricted to the
// readable set, with references expanded. Keys outside the writeable set,
// or keys pinned by Fix, fail with *ErrFieldPermission before anything is
// written. Required fields missing after sanitization fail with
// *ErrMissingFields.
func (c *Crud) Create(ctx context.Context, conn Conn, data Row) (Row, error) {
	if err := c.validateWrite(data); err != nil {
		return nil, err
	}

	merged := make(Row, len(data)+len(c.fixed))
	for k, v := range data {
		merged[k] = v
	}
	for k, v := range c.fixed {
		merged[k] = v
	}

	merged, err := c.sanitize(ctx, merged)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, k := range c.policy.required.List() {
		if _, ok := merged[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, &ErrMissingFields{Table: c.policy.Table().Name(), Fields: missing}
	}

	table := c.policy.Table()
	pk := table.PrimaryKey()

	var pkVal any
	if len(merged) == 0 {
		q := fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s", table.Name(), pk)
		if err := conn.QueryRowContext(ctx, q).Scan(&pkVal); err != nil {
			return nil, err
		}
	} else {
		cols := sortedKeys(merged)
		vals := make([]any, len(cols))
		for i, k := range cols {
			vals[i] = merged[k]
		}
		q, args, err := sq.Insert(table.Name()).
			Columns(cols...).
			Values(vals...).
			Suffix("RETURNING " + pk).
			PlaceholderFormat(sq.Dollar).
			ToSql()
		if err != nil {
			return nil, err
		}
		if err := conn.QueryRowContext(ctx, q, args...).Scan(&pkVal); err != nil {
			return nil, err
		}
	}

	rows, err := c.Fetch(ctx, conn, sq.Eq{pk: pkVal})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("created row %s=%v not visible in table %s", pk, pkVal, table.Name())
	}
	return rows[0], nil
}

// Fetch returns the rows matching the fixed values and the optional extra
// filter, restricted to the readable set, with references expanded. No
// matching rows is not an error; the result is simply empty.
func (c *Crud) Fetch(ctx context.Context, conn Conn, filter sq.Sqlizer) ([]Row, error) {
	return c.fetch(ctx, conn, filter, nil)
}

func (c *Crud) fetch(ctx context.Context, conn Conn, filter sq.Sqlizer, mod func(sq.SelectBuilder) sq.SelectBuilder) ([]Row, error) {
	table := c.policy.Table()
	cols, hidden := c.selectCols()

	b := sq.Select(cols...).
		From(table.Name()).
		PlaceholderFormat(sq.Dollar)
	if len(c.fixed) > 0 {
		b = b.Where(sq.Eq(c.fixed))
	}
	if filter != nil {
		b = b.Where(filter)
	}
	if mod != nil {
		b = mod(b)
	}

	q, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if err := c.decorate(ctx, conn, out, hidden); err != nil {
		return nil, err
	}
	return out, nil
}

// Update validates and sanitizes data, applies it to every row matching the
// fixed values and the optional extra filter, and returns the updated rows
// in the same shape Fetch produces. Key validation matches Create; required
// fields are not re-checked on update.
func (c *Crud) Update(ctx context.Context, conn Conn, data Row, filter sq.Sqlizer) ([]Row, error) {
	if err := c.validateWrite(data); err != nil {
		return nil, err
	}

	payload := make(Row, len(data))
	for k, v := range data {
		payload[k] = v
	}
	payload, err := c.sanitize(ctx, payload)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("update on table %s has no fields to set", c.policy.Table().Name())
	}

	table := c.policy.Table()
	cols, hidden := c.selectCols()

	b := sq.Update(table.Name()).
		SetMap(map[string]any(payload)).
		PlaceholderFormat(sq.Dollar)
	if len(c.fixed) > 0 {
		b = b.Where(sq.Eq(c.fixed))
	}
	if filter != nil {
		b = b.Where(filter)
	}
	b = b.Suffix("RETURNING " + strings.Join(cols, ", "))

	q, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if err := c.decorate(ctx, conn, out, hidden); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes every row matching the fixed values and the optional
// extra filter and returns the number of deleted rows.
func (c *Crud) Delete(ctx context.Context, conn Conn, filter sq.Sqlizer) (int64, error) {
	b := sq.Delete(c.policy.Table().Name()).
		PlaceholderFormat(sq.Dollar)
	if len(c.fixed) > 0 {
		b = b.Where(sq.Eq(c.fixed))
	}
	if filter != nil {
		b = b.Where(filter)
	}
	q, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := conn.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count returns the number of rows matching the fixed values and the
// optional extra filter.
func (c *Crud) Count(ctx context.Context, conn Conn, filter sq.Sqlizer) (int64, error) {
	b := sq.Select("COUNT(*)").
		From(c.policy.Table().Name()).
		PlaceholderFormat(sq.Dollar)
	if len(c.fixed) > 0 {
		b = b.Where(sq.Eq(c.fixed))
	}
	if filter != nil {
		b = b.Where(filter)
	}
	q, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := conn.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// validateWrite rejects payload keys outside the writeable set and keys
// pinned by Fix. It runs before any SQL is issued.
func (c *Crud) validateWrite(data Row) error {
	for _, k := range sortedKeys(data) {
		if _, ok := c.fixed[k]; ok {
			return &ErrFieldPermission{Table: c.policy.Table().Name(), Field: k, Fixed: true}
		}
		if !c.policy.writeable.Contains(k) {
			return &ErrFieldPermission{Table: c.policy.Table().Name(), Field: k}
		}
	}
	return nil
}

// sanitize runs the attached pipeline and checks its output still names
// real columns. Sanitizers may inject fields outside the writeable set,
// e.g. server-side timestamps.
func (c *Crud) sanitize(ctx context.Context, data Row) (Row, error) {
	if c.sanitizer == nil {
		return data, nil
	}
	out, err := c.sanitizer.Apply(ctx, data)
	if err != nil {
		return nil, err
	}
	for _, k := range sortedKeys(out) {
		if !c.policy.Table().HasColumn(k) {
			return nil, &ErrUnknownField{Table: c.policy.Table().Name(), Field: k}
		}
	}
	return out, nil
}

// selectCols returns the columns to select: the readable set plus hidden
// columns needed internally. Join columns of declared refs are selected
// even when not readable, and the primary key stands in when nothing else
// would be selected. Hidden columns are stripped before rows are returned.
func (c *Crud) selectCols() (cols []string, hidden []string) {
	cols = c.policy.readable.List()
	seen := make(map[string]struct{}, len(cols))
	for _, col := range cols {
		seen[col] = struct{}{}
	}
	for _, ref := range c.refs {
		if _, ok := seen[ref.ParentCol()]; ok {
			continue
		}
		seen[ref.ParentCol()] = struct{}{}
		hidden = append(hidden, ref.ParentCol())
	}
	if len(cols)+len(hidden) == 0 {
		hidden = append(hidden, c.policy.Table().PrimaryKey())
	}
	cols = append(cols, hidden...)
	return cols, hidden
}

// decorate expands references into each row, strips hidden join columns
// and applies table-name exposure.
func (c *Crud) decorate(ctx context.Context, conn Conn, rows []Row, hidden []string) error {
	for _, ref := range c.refs {
		if err := c.expandRef(ctx, conn, ref, rows); err != nil {
			return err
		}
	}
	for _, row := range rows {
		for _, h := range hidden {
			delete(row, h)
		}
		if c.tableAttr != "" {
			row[c.tableAttr] = c.displayName(c.policy.Table())
		}
	}
	return nil
}

// expandRef attaches the referenced table's readable fields under the
// ref's name for every row, using one IN query over the distinct join
// values. A parent without a matching referenced row gets nil.
func (c *Crud) expandRef(ctx context.Context, conn Conn, ref *Ref, rows []Row) error {
	seen := map[string]struct{}{}
	var vals []any
	for _, row := range rows {
		v := row[ref.ParentCol()]
		if v == nil {
			continue
		}
		k := fmt.Sprint(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		for _, row := range rows {
			row[ref.Name()] = nil
		}
		return nil
	}

	rs := ref.Readset()
	refTable := rs.Table()
	cols := rs.readable.List()
	joinHidden := ""
	if !rs.readable.Contains(ref.RefCol()) {
		joinHidden = ref.RefCol()
		cols = append(cols, joinHidden)
	}

	q, args, err := sq.Select(cols...).
		From(refTable.Name()).
		Where(sq.Eq{ref.RefCol(): vals}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return err
	}
	refRows, err := conn.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer refRows.Close()

	subs, err := scanRows(refRows)
	if err != nil {
		return err
	}
	byJoin := make(map[string]Row, len(subs))
	for _, sub := range subs {
		k := fmt.Sprint(sub[ref.RefCol()])
		if _, ok := byJoin[k]; !ok {
			byJoin[k] = sub
		}
	}

	for _, row := range rows {
		v := row[ref.ParentCol()]
		if v == nil {
			row[ref.Name()] = nil
			continue
		}
		sub, ok := byJoin[fmt.Sprint(v)]
		if !ok {
			row[ref.Name()] = nil
			continue
		}
		attached := make(Row, len(sub))
		for k, sv := range sub {
			attached[k] = sv
		}
		if joinHidden != "" {
			delete(attached, joinHidden)
		}
		if c.tableAttr != "" {
			attached[c.tableAttr] = c.displayName(refTable)
		}
		row[ref.Name()] = attached
	}
	return nil
}

func (c *Crud) displayName(t *Table) string {
	if n, ok := c.tableMap[t.Name()]; ok {
		return n
	}
	return t.Name()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
