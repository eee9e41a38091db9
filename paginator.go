package crudset

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
)

// ErrInvalidPageSize is returned by NewPaginator for a page size below one.
var ErrInvalidPageSize = errors.New("page size must be a positive integer")

// Paginator fetches fixed-size pages through a Crud. Pages are ordered by
// the table's primary key so that rows are neither skipped nor duplicated
// across pages of one pagination pass. A Paginator keeps no state between
// calls.
type Paginator struct {
	crud     *Crud
	pageSize int
}

// NewPaginator returns a Paginator over the given Crud.
func NewPaginator(crud *Crud, pageSize int) (*Paginator, error) {
	if pageSize < 1 {
		return nil, ErrInvalidPageSize
	}
	return &Paginator{crud: crud, pageSize: pageSize}, nil
}

// PageSize returns the configured page size.
func (p *Paginator) PageSize() int {
	return p.pageSize
}

// PageCount returns the number of pages needed for the rows matching the
// Crud's fixed values and the optional extra filter.
func (p *Paginator) PageCount(ctx context.Context, conn Conn, filter sq.Sqlizer) (int, error) {
	n, err := p.crud.Count(ctx, conn, filter)
	if err != nil {
		return 0, err
	}
	return int((n + int64(p.pageSize) - 1) / int64(p.pageSize)), nil
}

// Page returns the zero-based page at index. A negative index fails with
// *ErrInvalidPage; an index beyond the last page returns an empty slice,
// matching Fetch semantics for unmatched filters.
func (p *Paginator) Page(ctx context.Context, conn Conn, index int, filter sq.Sqlizer) ([]Row, error) {
	if index < 0 {
		return nil, &ErrInvalidPage{Page: index}
	}
	pk := p.crud.Policy().Table().PrimaryKey()
	return p.crud.fetch(ctx, conn, filter, func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.OrderBy(pk + " ASC").
			Limit(uint64(p.pageSize)).
			Offset(uint64(index) * uint64(p.pageSize))
	})
}
