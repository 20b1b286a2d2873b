package sql

import (
	"slices"
	"strconv"
	"strings"

	"github.com/syssam/relq"
	"github.com/syssam/relq/dialect"
)

// Builder is the low-level SQL string builder used while rendering. It
// quotes identifiers, numbers placeholders and collects arguments in
// placeholder emission order.
type Builder struct {
	sb      strings.Builder
	backend dialect.Backend
	rules   dialect.Rules
	args    []any
	scopes  []string
}

// NewBuilder returns a Builder for the backend.
func NewBuilder(backend dialect.Backend) (*Builder, error) {
	rules, ok := dialect.RulesFor(backend)
	if !ok {
		return nil, relq.UnsupportedDialectError(string(backend))
	}
	return &Builder{backend: backend, rules: rules}, nil
}

// Backend returns the backend the builder renders for.
func (b *Builder) Backend() dialect.Backend { return b.backend }

// WriteString appends s to the statement.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// WriteByte appends c to the statement.
func (b *Builder) WriteByte(c byte) *Builder {
	b.sb.WriteByte(c)
	return b
}

// Ident appends a quoted identifier.
func (b *Builder) Ident(s string) *Builder {
	b.sb.WriteString(b.rules.Quote(s))
	return b
}

// Column appends a column reference qualified with qualifier.
func (b *Builder) Column(qualifier, column string) *Builder {
	if qualifier != "" {
		b.sb.WriteString(qualifier)
		b.sb.WriteByte('.')
	}
	return b.Ident(column)
}

// Table appends a table reference, aliased when the qualifier differs from
// the quoted table name.
func (b *Builder) Table(t TableIdent, qualifier string) *Builder {
	ref := b.tableRef(t)
	b.sb.WriteString(ref)
	if qualifier != "" && qualifier != ref {
		b.sb.WriteString(" AS ")
		b.sb.WriteString(qualifier)
	}
	return b
}

// Arg appends a placeholder for v and records v as the next argument.
func (b *Builder) Arg(v any) *Builder {
	b.args = append(b.args, v)
	b.sb.WriteString(b.rules.Placeholder(len(b.args)))
	return b
}

// Args returns the collected arguments.
func (b *Builder) Args() []any { return b.args }

// String returns the statement text.
func (b *Builder) String() string { return b.sb.String() }

func (b *Builder) tableRef(t TableIdent) string {
	if t.Schema == "" {
		return b.rules.Quote(t.Name)
	}
	return b.rules.Quote(t.Schema) + "." + b.rules.Quote(t.Name)
}

// push opens a table scope and returns its qualifier. A table already in an
// enclosing scope is aliased so correlated references stay unambiguous.
func (b *Builder) push(t TableIdent) string {
	q := b.tableRef(t)
	if slices.Contains(b.scopes, q) {
		// The alias must not shadow a table or alias already in scope.
		for n := len(b.scopes); ; n++ {
			alias := b.rules.Quote("t" + strconv.Itoa(n))
			if !slices.Contains(b.scopes, alias) {
				q = alias
				break
			}
		}
	}
	b.scopes = append(b.scopes, q)
	return q
}

func (b *Builder) pop() {
	b.scopes = b.scopes[:len(b.scopes)-1]
}

// Render renders q as a SELECT statement for the backend. The returned
// arguments are ordered as their placeholders appear in the text, including
// those of nested subqueries (depth-first).
//
// Rendering a backend without rules returns an error wrapping
// relq.ErrUnsupportedDialect.
func Render(q Querier, backend dialect.Backend) (string, []any, error) {
	b, err := NewBuilder(backend)
	if err != nil {
		return "", nil, err
	}
	if err := checkPaging(q); err != nil {
		return "", nil, err
	}
	limit, offset := q.Paging()
	table := b.push(q.Table())
	defer b.pop()

	b.WriteString("SELECT ")
	b.top(limit, offset)
	if cols := q.Columns(); len(cols) > 0 {
		for i, c := range cols {
			if i > 0 {
				b.WriteString(", ")
			}
			b.Column(table, c)
		}
	} else {
		b.WriteByte('*')
	}
	b.WriteString(" FROM ")
	b.Table(q.Table(), table)

	first := true
	where := func(c Clause) {
		if first {
			b.WriteString(" WHERE ")
			first = false
		} else {
			b.WriteString(" AND ")
		}
		c.Render(b, table)
	}
	for _, c := range q.Wheres() {
		where(c)
	}
	for _, e := range q.ExistIns() {
		where(e)
	}
	b.orderAndPaging(table, q.Orders(), limit, offset)
	return b.String(), b.Args(), nil
}

// checkPaging rejects negative limits and offsets in q and in every query
// nested in it.
func checkPaging(q Querier) error {
	limit, offset := q.Paging()
	if limit != nil && *limit < 0 {
		return relq.NewConfigError("limit", *limit, "must not be negative")
	}
	if offset != nil && *offset < 0 {
		return relq.NewConfigError("offset", *offset, "must not be negative")
	}
	for _, e := range q.ExistIns() {
		if err := checkPaging(e.Inner()); err != nil {
			return err
		}
	}
	return nil
}

// top writes the TOP (n) prefix of a SQL Server select with a limit and no
// offset.
func (b *Builder) top(limit, offset *int) {
	if b.rules.Paging == dialect.PagingTopFetch && limit != nil && offset == nil {
		b.WriteString("TOP (").WriteString(strconv.Itoa(*limit)).WriteString(") ")
	}
}

// orderAndPaging writes the ORDER BY and row window of a select whose table
// is referenced by qualifier.
func (b *Builder) orderAndPaging(qualifier string, orders []OrderBy, limit, offset *int) {
	if len(orders) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range orders {
			if i > 0 {
				b.WriteString(", ")
			}
			b.Column(qualifier, o.Column)
			if o.Desc {
				b.WriteString(" DESC")
			} else {
				b.WriteString(" ASC")
			}
		}
	}

	topFetch := b.rules.Paging == dialect.PagingTopFetch
	switch {
	case topFetch && offset != nil:
		if len(orders) == 0 {
			b.WriteString(" ORDER BY (SELECT NULL)")
		}
		b.WriteString(" OFFSET ").WriteString(strconv.Itoa(*offset)).WriteString(" ROWS")
		if limit != nil {
			b.WriteString(" FETCH NEXT ").WriteString(strconv.Itoa(*limit)).WriteString(" ROWS ONLY")
		}
	case topFetch:
	case limit != nil:
		b.WriteString(" LIMIT ").WriteString(strconv.Itoa(*limit))
		if offset != nil {
			b.WriteString(" OFFSET ").WriteString(strconv.Itoa(*offset))
		}
	case offset != nil:
		if b.rules.NoLimit != "" {
			b.WriteString(" LIMIT ").WriteString(b.rules.NoLimit)
		}
		b.WriteString(" OFFSET ").WriteString(strconv.Itoa(*offset))
	}
}

// MustRender is like Render but panics on error. It is meant for queries
// rendered for a backend fixed at compile time.
func MustRender(q Querier, backend dialect.Backend) (string, []any) {
	query, args, err := Render(q, backend)
	if err != nil {
		panic(err)
	}
	return query, args
}

// KeyOf renders q and returns the cache key of the resulting statement.
func KeyOf(q Querier, backend dialect.Backend) (relq.CacheKey, error) {
	query, args, err := Render(q, backend)
	if err != nil {
		return relq.CacheKey{}, err
	}
	return relq.CacheKey{Backend: string(backend), Query: query, Args: args}, nil
}
