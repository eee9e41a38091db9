package crudset

import "errors"

// ErrWriteableNotReadable is returned by NewPolicy when the writeable set
// is not a subset of the readable set. Allowing writes to fields a role
// cannot read back leads to blind updates, so it is rejected up front.
var ErrWriteableNotReadable = errors.New("writeable fields must be a subset of readable fields")

// Policy binds a table to three field sets: readable, writeable and
// required. It governs one role's access to the table. A Policy is
// immutable; derive more restrictive ones with Narrow.
type Policy struct {
	table     *Table
	readable  FieldSet
	writeable FieldSet
	required  FieldSet
}

type policyConfig struct {
	readable     []string
	writeable    []string
	required     []string
	hasReadable  bool
	hasWriteable bool
	hasRequired  bool
}

// PolicyOption configures NewPolicy.
type PolicyOption func(*policyConfig)

// WithReadable limits the readable set to the given fields. Without this
// option every column is readable.
func WithReadable(fields ...string) PolicyOption {
	return func(c *policyConfig) {
		c.readable = fields
		c.hasReadable = true
	}
}

// WithWriteable limits the writeable set to the given fields. Without this
// option every column is writeable.
func WithWriteable(fields ...string) PolicyOption {
	return func(c *policyConfig) {
		c.writeable = fields
		c.hasWriteable = true
	}
}

// WithRequired marks fields that must be present when creating a row.
// Without this option no field is required.
func WithRequired(fields ...string) PolicyOption {
	return func(c *policyConfig) {
		c.required = fields
		c.hasRequired = true
	}
}

// NewPolicy returns a Policy for the table. Field names that do not exist
// on the table fail with *ErrUnknownField.
func NewPolicy(table *Table, opts ...PolicyOption) (*Policy, error) {
	var cfg policyConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var reqReadable, reqWriteable, reqRequired []string
	if cfg.hasReadable {
		reqReadable = nonNil(cfg.readable)
	}
	if cfg.hasWriteable {
		reqWriteable = nonNil(cfg.writeable)
	}
	if cfg.hasRequired {
		reqRequired = nonNil(cfg.required)
	} else {
		reqRequired = []string{}
	}

	readable, err := resolveFields(table, reqReadable)
	if err != nil {
		return nil, err
	}
	writeable, err := resolveFields(table, reqWriteable)
	if err != nil {
		return nil, err
	}
	required, err := resolveFields(table, reqRequired)
	if err != nil {
		return nil, err
	}
	if !writeable.subsetOf(readable) {
		return nil, ErrWriteableNotReadable
	}
	return &Policy{
		table:     table,
		readable:  readable,
		writeable: writeable,
		required:  required,
	}, nil
}

// NewReadset returns a Policy that only allows reading the given fields
// (all fields when none are given). Nothing is writeable.
func NewReadset(table *Table, fields ...string) (*Policy, error) {
	opts := []PolicyOption{WithWriteable()}
	if len(fields) > 0 {
		opts = append(opts, WithReadable(fields...))
	}
	return NewPolicy(table, opts...)
}

// NewWriteset returns a Policy that allows writing the given fields (all
// fields when none are given). Every field stays readable.
func NewWriteset(table *Table, fields ...string) (*Policy, error) {
	if len(fields) == 0 {
		return NewPolicy(table)
	}
	return NewPolicy(table, WithWriteable(fields...))
}

// Table returns the table the policy is bound to.
func (p *Policy) Table() *Table {
	return p.table
}

// Readable returns the readable field names in table column order.
func (p *Policy) Readable() []string {
	return p.readable.List()
}

// Writeable returns the writeable field names in table column order.
func (p *Policy) Writeable() []string {
	return p.writeable.List()
}

// Required returns the required field names in table column order.
func (p *Policy) Required() []string {
	return p.required.List()
}

// Narrow derives a child Policy whose sets are the intersection of the
// parent's sets with the requested ones. A nil slice keeps the parent set
// unchanged. Names the parent does not expose are silently dropped, so a
// child can never gain access the parent did not have.
func (p *Policy) Narrow(readable, writeable, required []string) *Policy {
	child := &Policy{
		table:     p.table,
		readable:  p.readable,
		writeable: p.writeable,
		required:  p.required,
	}
	if readable != nil {
		child.readable = p.readable.Intersect(readable)
	}
	if writeable != nil {
		child.writeable = p.writeable.Intersect(writeable)
	}
	if required != nil {
		child.required = p.required.Intersect(required)
	}
	// Narrowing readable alone may leave writeable fields unreadable;
	// trim writeable to keep the construction invariant.
	if !child.writeable.subsetOf(child.readable) {
		child.writeable = child.writeable.Intersect(child.readable.List())
	}
	return child
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
