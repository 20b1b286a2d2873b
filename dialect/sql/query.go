package sql

import (
	"slices"

	"github.com/syssam/relq/dialect"
)

// Query is an un-executed SELECT against the table described by the schema
// handle S. Every combinator returns a new Query and leaves its receiver
// untouched, so a query can be branched and built from many goroutines.
//
//	q := sql.Select[product.Schema]().
//		Where(func(p product.Schema) sql.Clause { return p.Price().GT(10) }).
//		OrderByDesc(func(p product.Schema) sql.FieldName { return p.Price() }).
//		Limit(20)
//	query, args, err := q.Render(dialect.Postgres)
type Query[S Schema] struct {
	wheres   []Clause
	existIns []*ExistIn
	orderBy  []OrderBy
	limit    *int
	offset   *int
}

// Select returns an empty query against the table of S.
func Select[S Schema]() *Query[S] {
	return &Query[S]{}
}

// clone returns a shallow copy whose slices reallocate on append.
func (q *Query[S]) clone() *Query[S] {
	c := *q
	c.wheres = slices.Clip(q.wheres)
	c.existIns = slices.Clip(q.existIns)
	c.orderBy = slices.Clip(q.orderBy)
	return &c
}

// Where filters the query on the columns of its own table. The predicate
// function receives a zero-value schema handle. Multiple calls are AND-ed in
// call order.
func (q *Query[S]) Where(fn func(S) Clause) *Query[S] {
	var s S
	c := q.clone()
	c.wheres = append(c.wheres, fn(s))
	return c
}

// OrderByAsc appends an ascending ordering key. The first key is the primary one.
func (q *Query[S]) OrderByAsc(fn func(S) FieldName) *Query[S] {
	return q.order(fn, false)
}

// OrderByDesc appends a descending ordering key. The first key is the primary one.
func (q *Query[S]) OrderByDesc(fn func(S) FieldName) *Query[S] {
	return q.order(fn, true)
}

func (q *Query[S]) order(fn func(S) FieldName, desc bool) *Query[S] {
	var s S
	c := q.clone()
	c.orderBy = append(c.orderBy, OrderBy{Column: fn(s).Name(), Desc: desc})
	return c
}

// Limit sets the maximum number of returned rows. The last call wins.
func (q *Query[S]) Limit(n int) *Query[S] {
	c := q.clone()
	c.limit = &n
	return c
}

// Offset sets the number of rows to skip. The last call wins.
func (q *Query[S]) Offset(n int) *Query[S] {
	c := q.clone()
	c.offset = &n
	return c
}

// Table implements the Querier interface.
func (q *Query[S]) Table() TableIdent {
	var s S
	return s.Table()
}

// Columns implements the Querier interface.
func (q *Query[S]) Columns() []string {
	var s S
	return s.Columns()
}

// Wheres implements the Querier interface.
func (q *Query[S]) Wheres() []Clause { return slices.Clip(q.wheres) }

// ExistIns implements the Querier interface.
func (q *Query[S]) ExistIns() []*ExistIn { return slices.Clip(q.existIns) }

// Orders implements the Querier interface.
func (q *Query[S]) Orders() []OrderBy { return slices.Clip(q.orderBy) }

// Paging implements the Querier interface.
func (q *Query[S]) Paging() (limit, offset *int) {
	if q.limit != nil {
		l := *q.limit
		limit = &l
	}
	if q.offset != nil {
		o := *q.offset
		offset = &o
	}
	return limit, offset
}

// Render renders the query for the backend. See the package-level Render.
func (q *Query[S]) Render(backend dialect.Backend) (string, []any, error) {
	return Render(q, backend)
}

// WhereRelation restricts q to the rows that have at least one related row,
// through rel, matched by filter. It renders a correlated EXISTS, so the row
// count of q never grows (a semi-join, not a JOIN).
//
//	products := sql.WhereRelation(sql.Select[product.Schema](),
//		func(p product.Schema) sql.Relation[order.Schema] { return p.Orders() },
//		sql.Select[order.Schema]().Where(func(o order.Schema) sql.Clause { return o.ID().GT(5) }),
//	)
func WhereRelation[S, R Schema](q *Query[S], rel func(S) Relation[R], filter *Query[R]) *Query[S] {
	var s S
	ship := rel(s)
	outer, inner := ship.Keys(false)
	c := q.clone()
	c.existIns = append(c.existIns, NewExistIn(filter, outer, inner))
	return c
}

// MapQuery turns q into a query over the related table: the result selects
// the rows of R for which a row of q exists through rel. The key roles are the
// mirror image of WhereRelation on the same relationship.
func MapQuery[S, R Schema](q *Query[S], rel func(S) Relation[R]) *Query[R] {
	var s S
	ship := rel(s)
	outer, inner := ship.Keys(true)
	return &Query[R]{
		existIns: []*ExistIn{NewExistIn(q, outer, inner)},
	}
}

var _ Querier = (*Query[Schema])(nil)
