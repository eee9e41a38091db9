package crudset

import (
	"context"
	"errors"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFamilies(t *testing.T, n int) {
	t.Helper()
	_, err := dbConn.Exec(
		"INSERT INTO families (surname, location) SELECT 'Family ' || i, CASE WHEN i % 2 = 0 THEN 'north' ELSE 'south' END FROM generate_series(1, $1) i",
		n,
	)
	require.NoError(t, err)
}

func TestPaginatorPageSize(t *testing.T) {
	crud := mustCrud(t, mustPolicy(t, familiesTable))

	_, err := NewPaginator(crud, 0)
	assert.True(t, errors.Is(err, ErrInvalidPageSize))
	_, err = NewPaginator(crud, -5)
	assert.True(t, errors.Is(err, ErrInvalidPageSize))

	p, err := NewPaginator(crud, 13)
	require.NoError(t, err)
	assert.Equal(t, 13, p.PageSize())
}

func TestPaginatorPageCount(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	seedFamilies(t, 432)

	crud := mustCrud(t, mustPolicy(t, familiesTable))
	pager, err := NewPaginator(crud, 13)
	require.NoError(t, err)

	n, err := pager.PageCount(ctx, dbConn, nil)
	require.NoError(t, err)
	assert.Equal(t, 34, n)
}

func TestPaginatorPage(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	seedFamilies(t, 432)

	crud := mustCrud(t, mustPolicy(t, familiesTable))
	pager, err := NewPaginator(crud, 13)
	require.NoError(t, err)

	page, err := pager.Page(ctx, dbConn, 2, nil)
	require.NoError(t, err)
	assert.Len(t, page, 13)

	// Last page holds the remainder.
	page, err = pager.Page(ctx, dbConn, 33, nil)
	require.NoError(t, err)
	assert.Len(t, page, 432-33*13)
}

func TestPaginatorPageBeyondLastIsEmpty(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	seedFamilies(t, 20)

	crud := mustCrud(t, mustPolicy(t, familiesTable))
	pager, err := NewPaginator(crud, 13)
	require.NoError(t, err)

	page, err := pager.Page(ctx, dbConn, 99, nil)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestPaginatorNegativePage(t *testing.T) {
	crud := mustCrud(t, mustPolicy(t, familiesTable))
	pager, err := NewPaginator(crud, 13)
	require.NoError(t, err)

	_, err = pager.Page(context.Background(), dbConn, -1, nil)
	var invalid *ErrInvalidPage
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, -1, invalid.Page)
}

func TestPaginatorStableOrderAcrossPages(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	seedFamilies(t, 100)

	crud := mustCrud(t, mustPolicy(t, familiesTable))
	pager, err := NewPaginator(crud, 9)
	require.NoError(t, err)

	seen := map[int64]bool{}
	var last int64
	n, err := pager.PageCount(ctx, dbConn, nil)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		page, err := pager.Page(ctx, dbConn, i, nil)
		require.NoError(t, err)
		for _, row := range page {
			id := row["id"].(int64)
			assert.Greater(t, id, last, "rows must come back in primary key order")
			assert.False(t, seen[id], "no row may appear on two pages")
			seen[id] = true
			last = id
		}
	}
	assert.Len(t, seen, 100)
}

func TestPaginatorFiltered(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	seedFamilies(t, 50)

	crud := mustCrud(t, mustPolicy(t, familiesTable))
	pager, err := NewPaginator(crud, 10)
	require.NoError(t, err)

	n, err := pager.PageCount(ctx, dbConn, sq.Eq{"location": "north"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	page, err := pager.Page(ctx, dbConn, 0, sq.Eq{"location": "north"})
	require.NoError(t, err)
	require.Len(t, page, 10)
	for _, row := range page {
		assert.Equal(t, "north", row["location"])
	}
}

func TestPaginatorRespectsFixed(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	seedFamilies(t, 30)

	crud := mustCrud(t, mustPolicy(t, familiesTable))
	south, err := crud.Fix(map[string]any{"location": "south"})
	require.NoError(t, err)
	pager, err := NewPaginator(south, 4)
	require.NoError(t, err)

	n, err := pager.PageCount(ctx, dbConn, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, n) // 15 south rows in pages of 4

	page, err := pager.Page(ctx, dbConn, 0, nil)
	require.NoError(t, err)
	for _, row := range page {
		assert.Equal(t, "south", row["location"])
	}
}
