// Package crudset puts a declarative, role-based access layer in front of
// PostgreSQL tables. A Policy names which columns a role may read, write
// and must supply; a Crud turns that Policy into create, fetch, update and
// delete operations whose visible and writeable fields are restricted
// accordingly.
//
// Start from a table description and a policy:
//
//	pets := crudset.MustTable("pets", "id",
//		crudset.Column{Name: "id", Type: crudset.ColNumeric},
//		crudset.Column{Name: "name", Type: crudset.ColText},
//		crudset.Column{Name: "owner_id", Type: crudset.ColNumeric},
//	)
//	policy, err := crudset.NewPolicy(pets,
//		crudset.WithWriteable("name", "owner_id"),
//		crudset.WithRequired("name"),
//	)
//
// Build a Crud and run operations against any *sql.DB or *sql.Tx:
//
//	crud, err := crudset.NewCrud(policy)
//	pet, err := crud.Create(ctx, db, crudset.Row{"name": "Molly"})
//	all, err := crud.Fetch(ctx, db, nil)
//	some, err := crud.Fetch(ctx, db, sq.Eq{"name": "Molly"})
//
// Fix pins column values on a derived Crud. Every statement the derived
// instance issues is scoped to them, which is how per-tenant or per-owner
// views are built:
//
//	mine, err := crud.Fix(map[string]any{"owner_id": userID})
//	pets, err := mine.Fetch(ctx, db, nil) // only this owner's rows
//
// Narrow derives a strictly more restrictive policy; a child can never see
// or write a field its parent could not:
//
//	public := policy.Narrow([]string{"id", "name"}, []string{}, nil)
//
// Sanitizers transform write payloads before they are stored, and Refs
// attach field-filtered rows of related tables to fetched rows:
//
//	san := crudset.NewSanitizer(pets).Field("name", titleCase)
//	owner, _ := crudset.NewReadset(people, "id", "name")
//	ref, _ := crudset.NewRef("owner", owner, "owner_id", "id")
//	crud, err := crudset.NewCrud(policy,
//		crudset.WithSanitizer(san),
//		crudset.WithRefs(ref),
//	)
//
// Pagination with a stable primary-key order:
//
//	pager, _ := crudset.NewPaginator(crud, 25)
//	n, err := pager.PageCount(ctx, db, nil)
//	page, err := pager.Page(ctx, db, 0, nil)
//
// The package holds no connection and no shared mutable state. Policies,
// Sanitizers, Refs and Cruds are immutable after construction and safe to
// share between goroutines; all querying goes through the caller's
// database/sql connection.
package crudset
