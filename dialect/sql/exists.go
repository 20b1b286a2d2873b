package sql

// Querier is the untyped view of a Query used by the renderer and by
// correlated subqueries. Every *Query[S] implements it.
type Querier interface {
	// Table returns the table the query selects from.
	Table() TableIdent
	// Columns returns the selected column names.
	Columns() []string
	// Wheres returns the column predicates in AND order.
	Wheres() []Clause
	// ExistIns returns the correlated subqueries in AND order.
	ExistIns() []*ExistIn
	// Orders returns the ordering keys, primary key first.
	Orders() []OrderBy
	// Paging returns the limit and offset, nil when unset.
	Paging() (limit, offset *int)
}

// ExistIn is a correlated semi-join predicate:
//
//	EXISTS (SELECT 1 FROM inner WHERE inner.innerColumn = outer.outerColumn AND <inner predicates> [ORDER BY ...] [paging])
//
// It never changes the row multiplicity of the enclosing query. Paging of
// the inner query is kept: an inner Offset(m) requires more than m related
// rows, an inner Limit(0) matches nothing.
type ExistIn struct {
	inner       Querier
	outerColumn string
	innerTable  TableIdent
	innerColumn string
}

// NewExistIn returns an ExistIn that owns inner.
func NewExistIn(inner Querier, outerColumn string, innerColumn string) *ExistIn {
	return &ExistIn{
		inner:       inner,
		outerColumn: outerColumn,
		innerTable:  inner.Table(),
		innerColumn: innerColumn,
	}
}

// Inner returns the wrapped query.
func (e *ExistIn) Inner() Querier { return e.inner }

// OuterColumn returns the join column of the enclosing query.
func (e *ExistIn) OuterColumn() string { return e.outerColumn }

// InnerTable returns the table of the subquery.
func (e *ExistIn) InnerTable() TableIdent { return e.innerTable }

// InnerColumn returns the join column of the subquery.
func (e *ExistIn) InnerColumn() string { return e.innerColumn }

// Render implements the Clause interface. The qualifier is the enclosing
// query's table reference.
func (e *ExistIn) Render(b *Builder, qualifier string) {
	inner := b.push(e.innerTable)
	defer b.pop()
	limit, offset := e.inner.Paging()
	b.WriteString("EXISTS (SELECT ")
	b.top(limit, offset)
	b.WriteString("1 FROM ")
	b.Table(e.innerTable, inner)
	b.WriteString(" WHERE ")
	b.Column(inner, e.innerColumn)
	b.WriteString(" = ")
	b.Column(qualifier, e.outerColumn)
	for _, c := range e.inner.Wheres() {
		b.WriteString(" AND ")
		c.Render(b, inner)
	}
	for _, c := range e.inner.ExistIns() {
		b.WriteString(" AND ")
		c.Render(b, inner)
	}
	b.orderAndPaging(inner, e.inner.Orders(), limit, offset)
	b.WriteByte(')')
}

var _ Clause = (*ExistIn)(nil)
