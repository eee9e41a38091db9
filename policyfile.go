package crudset

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Role is a named, declaratively configured access definition: a Policy
// plus fixed values, loaded from a YAML role file.
type Role struct {
	name   string
	policy *Policy
	fixed  map[string]any
}

type roleFile struct {
	Roles map[string]roleDef `yaml:"roles"`
}

type roleDef struct {
	Table     string         `yaml:"table"`
	Readable  []string       `yaml:"readable"`
	Writeable []string       `yaml:"writeable"`
	Required  []string       `yaml:"required"`
	Fixed     map[string]any `yaml:"fixed"`
}

// LoadRoles parses a YAML role document and resolves each role against the
// supplied tables. Omitting readable or writeable in the document means
// every column, matching NewPolicy defaults. The document shape is:
//
//	roles:
//	  editor:
//	    table: pets
//	    readable: [id, name, owner_id]
//	    writeable: [name]
//	    required: [name]
//	    fixed:
//	      status: active
func LoadRoles(r io.Reader, tables map[string]*Table) (map[string]*Role, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var doc roleFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing role file: %w", err)
	}
	if len(doc.Roles) == 0 {
		return nil, fmt.Errorf("role file defines no roles")
	}

	out := make(map[string]*Role, len(doc.Roles))
	for name, def := range doc.Roles {
		table, ok := tables[def.Table]
		if !ok {
			return nil, fmt.Errorf("role %s references unknown table %s", name, def.Table)
		}
		var opts []PolicyOption
		if def.Readable != nil {
			opts = append(opts, WithReadable(def.Readable...))
		}
		if def.Writeable != nil {
			opts = append(opts, WithWriteable(def.Writeable...))
		}
		if def.Required != nil {
			opts = append(opts, WithRequired(def.Required...))
		}
		policy, err := NewPolicy(table, opts...)
		if err != nil {
			return nil, fmt.Errorf("role %s: %w", name, err)
		}
		for col := range def.Fixed {
			if !table.HasColumn(col) {
				return nil, fmt.Errorf("role %s: %w", name, &ErrUnknownField{Table: table.Name(), Field: col})
			}
		}
		out[name] = &Role{
			name:   name,
			policy: policy,
			fixed:  def.Fixed,
		}
	}
	return out, nil
}

// Name returns the role's name as given in the role file.
func (r *Role) Name() string {
	return r.name
}

// Policy returns the role's resolved policy.
func (r *Role) Policy() *Policy {
	return r.policy
}

// Fixed returns a copy of the role's fixed values.
func (r *Role) Fixed() map[string]any {
	out := make(map[string]any, len(r.fixed))
	for k, v := range r.fixed {
		out[k] = v
	}
	return out
}

// Crud builds a Crud for the role, with the role's fixed values already
// applied. Additional options configure sanitizers, refs and table-name
// exposure as with NewCrud.
func (r *Role) Crud(opts ...CrudOption) (*Crud, error) {
	c, err := NewCrud(r.policy, opts...)
	if err != nil {
		return nil, err
	}
	if len(r.fixed) == 0 {
		return c, nil
	}
	return c.Fix(r.fixed)
}
