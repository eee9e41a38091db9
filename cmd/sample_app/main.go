package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/iffy/crudset"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const schema = `
CREATE TABLE IF NOT EXISTS people (
	id SERIAL PRIMARY KEY,
	name TEXT,
	email TEXT
);
CREATE TABLE IF NOT EXISTS pets (
	id SERIAL PRIMARY KEY,
	name TEXT,
	owner_id BIGINT,
	status TEXT
);
`

// Role definitions for this app. The keeper role manages active pets but
// never sees owner emails; the auditor can only look.
const roleDoc = `
roles:
  keeper:
    table: pets
    readable: [id, name, owner_id, status]
    writeable: [name, owner_id]
    required: [name]
    fixed:
      status: active
  auditor:
    table: pets
    readable: [id, name, status]
    writeable: []
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Syntax: sample_app <config.yaml>\n")
		os.Exit(1)
	}

	cfg, err := NewConfig(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}

	conn, err := NewDB(cfg).GetConn()
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	ctx := context.Background()
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		log.Fatalf("Error creating schema: %s", err)
	}

	people, err := crudset.LoadTable(ctx, conn, "people")
	if err != nil {
		log.Fatalf("Error loading people table: %s", err)
	}
	pets, err := crudset.LoadTable(ctx, conn, "pets")
	if err != nil {
		log.Fatalf("Error loading pets table: %s", err)
	}

	roles, err := crudset.LoadRoles(strings.NewReader(roleDoc), map[string]*crudset.Table{
		"people": people,
		"pets":   pets,
	})
	if err != nil {
		log.Fatalf("Error loading roles: %s", err)
	}

	// Pet names get title-cased before they are stored.
	title := cases.Title(language.English)
	san := crudset.NewSanitizer(pets).
		Field("name", func(ctx context.Context, data crudset.Row, field string) (any, error) {
			return title.String(fmt.Sprint(data[field])), nil
		})

	ownerSet, err := crudset.NewReadset(people, "id", "name")
	if err != nil {
		log.Fatal(err)
	}
	ownerRef, err := crudset.NewRef("owner", ownerSet, "owner_id", "id")
	if err != nil {
		log.Fatal(err)
	}

	keeper, err := roles["keeper"].Crud(
		crudset.WithSanitizer(san),
		crudset.WithRefs(ownerRef),
		crudset.WithTableAttr("_type"),
		crudset.WithTableMap(map[string]string{"pets": "Pet", "people": "Person"}),
	)
	if err != nil {
		log.Fatal(err)
	}

	peopleCrud, err := crudset.NewCrud(mustPolicy(people))
	if err != nil {
		log.Fatal(err)
	}
	owner, err := peopleCrud.Create(ctx, conn, crudset.Row{"name": "Sam", "email": "sam@example.com"})
	if err != nil {
		log.Fatalf("Error creating person: %s", err)
	}
	log.Printf("Created person: %v", owner)

	pet, err := keeper.Create(ctx, conn, crudset.Row{"name": "molly", "owner_id": owner["id"]})
	if err != nil {
		log.Fatalf("Error creating pet: %s", err)
	}
	log.Printf("Created pet: %v", pet)

	updated, err := keeper.Update(ctx, conn, crudset.Row{"name": "molly II"}, sq.Eq{"id": pet["id"]})
	if err != nil {
		log.Fatalf("Error updating pet: %s", err)
	}
	log.Printf("Updated pet: %v", updated)

	auditor, err := roles["auditor"].Crud()
	if err != nil {
		log.Fatal(err)
	}
	pager, err := crudset.NewPaginator(auditor, 10)
	if err != nil {
		log.Fatal(err)
	}
	pages, err := pager.PageCount(ctx, conn, nil)
	if err != nil {
		log.Fatalf("Error counting pages: %s", err)
	}
	for i := 0; i < pages; i++ {
		page, err := pager.Page(ctx, conn, i, nil)
		if err != nil {
			log.Fatalf("Error fetching page %d: %s", i, err)
		}
		log.Printf("Page %d: %v", i, page)
	}

	n, err := keeper.Delete(ctx, conn, sq.Eq{"id": pet["id"]})
	if err != nil {
		log.Fatalf("Error deleting pet: %s", err)
	}
	log.Printf("Deleted %d pet(s)", n)
}

func mustPolicy(table *crudset.Table, opts ...crudset.PolicyOption) *crudset.Policy {
	p, err := crudset.NewPolicy(table, opts...)
	if err != nil {
		log.Fatal(err)
	}
	return p
}
