package sql

import (
	"strings"
)

// Op is a comparison operator of a column predicate.
type Op string

// Comparison operators.
const (
	OpEQ  Op = "="
	OpNEQ Op = "!="
	OpGT  Op = ">"
	OpLT  Op = "<"
	OpGTE Op = ">="
	OpLTE Op = "<="
)

// Clause is a predicate that can be rendered into a WHERE clause.
// Implementations must be immutable once constructed.
type Clause interface {
	// Render writes the predicate to b. Column references are qualified
	// with the given table qualifier.
	Render(b *Builder, qualifier string)
}

// FieldName is implemented by every typed column handle.
type FieldName interface {
	Name() string
}

// TableIdent identifies a table or view, optionally inside a schema.
type TableIdent struct {
	Schema string
	Name   string
}

// String returns the dotted identity, e.g. "public.products".
func (t TableIdent) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Schema is implemented by the generated, zero-size schema handles. Besides
// these methods, a handle exposes one typed accessor per column and one
// Relation accessor per declared relationship.
type Schema interface {
	// Table returns the table the handle describes.
	Table() TableIdent
	// PrimaryKey returns the primary key column name.
	PrimaryKey() string
	// Columns returns the selectable column names in declaration order.
	Columns() []string
}

// ColumnValue is a single typed predicate on a column: a comparison against a
// bound value, or a NULL test when the optional value held nothing.
type ColumnValue struct {
	Column string
	Op     Op
	Value  any
	// IsNull is set when the source value was an empty optional. The predicate
	// renders "IS NULL" for OpEQ and "IS NOT NULL" for any other operator.
	IsNull bool
}

// Render implements the Clause interface.
func (c ColumnValue) Render(b *Builder, qualifier string) {
	b.Column(qualifier, c.Column)
	if c.IsNull {
		if c.Op == OpEQ {
			b.WriteString(" IS NULL")
		} else {
			b.WriteString(" IS NOT NULL")
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(c.sqlOp())
	b.WriteByte(' ')
	b.Arg(c.Value)
}

// sqlOp returns the standard SQL spelling of the operator.
func (c ColumnValue) sqlOp() string {
	if c.Op == OpNEQ {
		return "<>"
	}
	return string(c.Op)
}

// String returns a readable form of the predicate, for debugging.
func (c ColumnValue) String() string {
	var sb strings.Builder
	sb.WriteString(c.Column)
	switch {
	case c.IsNull && c.Op == OpEQ:
		sb.WriteString(" IS NULL")
	case c.IsNull:
		sb.WriteString(" IS NOT NULL")
	default:
		sb.WriteString(" " + c.sqlOp() + " ?")
	}
	return sb.String()
}

// OrderBy is a single ordering key.
type OrderBy struct {
	Column string
	Desc   bool
}
