package sql

import (
	"cmp"
	"time"
)

// Ordered is the constraint of column types that support range comparisons.
type Ordered interface {
	cmp.Ordered | time.Time
}

// Some returns a pointer to v, for building optional predicates inline.
//
//	q.Where(func(p product.Schema) sql.Clause { return p.Description().Equal(sql.Some("new")) })
func Some[T any](v T) *T {
	return &v
}

// Basic is a required column supporting equality predicates only.
//
// Usage:
//
//	func (Schema) Name() sql.Basic[string] { return "name" }
//	query.Where(func(p Schema) sql.Clause { return p.Name().Equal("pen") })
type Basic[T any] string

// Name returns the column name.
func (f Basic[T]) Name() string { return string(f) }

// Equal returns a predicate that checks if the column equals v.
func (f Basic[T]) Equal(v T) ColumnValue {
	return ColumnValue{Column: string(f), Op: OpEQ, Value: v}
}

// NotEqual returns a predicate that checks if the column does not equal v.
func (f Basic[T]) NotEqual(v T) ColumnValue {
	return ColumnValue{Column: string(f), Op: OpNEQ, Value: v}
}

// BasicOpt is a nullable column supporting equality predicates only. A nil
// value turns the predicate into a NULL test.
type BasicOpt[T any] string

// Name returns the column name.
func (f BasicOpt[T]) Name() string { return string(f) }

// Equal returns a predicate that checks if the column equals v,
// or IS NULL when v is nil.
func (f BasicOpt[T]) Equal(v *T) ColumnValue {
	return optional(string(f), OpEQ, v)
}

// NotEqual returns a predicate that checks if the column does not equal v,
// or IS NOT NULL when v is nil.
func (f BasicOpt[T]) NotEqual(v *T) ColumnValue {
	return optional(string(f), OpNEQ, v)
}

// Numeric is a required column of an ordered type.
type Numeric[T Ordered] string

// Name returns the column name.
func (f Numeric[T]) Name() string { return string(f) }

// Equal returns a predicate that checks if the column equals v.
func (f Numeric[T]) Equal(v T) ColumnValue {
	return ColumnValue{Column: string(f), Op: OpEQ, Value: v}
}

// NotEqual returns a predicate that checks if the column does not equal v.
func (f Numeric[T]) NotEqual(v T) ColumnValue {
	return ColumnValue{Column: string(f), Op: OpNEQ, Value: v}
}

// GT returns a predicate that checks if the column is greater than v.
func (f Numeric[T]) GT(v T) ColumnValue {
	return ColumnValue{Column: string(f), Op: OpGT, Value: v}
}

// LT returns a predicate that checks if the column is less than v.
func (f Numeric[T]) LT(v T) ColumnValue {
	return ColumnValue{Column: string(f), Op: OpLT, Value: v}
}

// GTE returns a predicate that checks if the column is greater than or equal to v.
func (f Numeric[T]) GTE(v T) ColumnValue {
	return ColumnValue{Column: string(f), Op: OpGTE, Value: v}
}

// LTE returns a predicate that checks if the column is less than or equal to v.
func (f Numeric[T]) LTE(v T) ColumnValue {
	return ColumnValue{Column: string(f), Op: OpLTE, Value: v}
}

// NumericOpt is a nullable column of an ordered type. Every predicate built
// from a nil value is a NULL test: Equal renders IS NULL, all other
// operators render IS NOT NULL.
type NumericOpt[T Ordered] string

// Name returns the column name.
func (f NumericOpt[T]) Name() string { return string(f) }

// Equal returns a predicate that checks if the column equals v.
func (f NumericOpt[T]) Equal(v *T) ColumnValue {
	return optional(string(f), OpEQ, v)
}

// NotEqual returns a predicate that checks if the column does not equal v.
func (f NumericOpt[T]) NotEqual(v *T) ColumnValue {
	return optional(string(f), OpNEQ, v)
}

// GT returns a predicate that checks if the column is greater than v.
func (f NumericOpt[T]) GT(v *T) ColumnValue {
	return optional(string(f), OpGT, v)
}

// LT returns a predicate that checks if the column is less than v.
func (f NumericOpt[T]) LT(v *T) ColumnValue {
	return optional(string(f), OpLT, v)
}

// GTE returns a predicate that checks if the column is greater than or equal to v.
func (f NumericOpt[T]) GTE(v *T) ColumnValue {
	return optional(string(f), OpGTE, v)
}

// LTE returns a predicate that checks if the column is less than or equal to v.
func (f NumericOpt[T]) LTE(v *T) ColumnValue {
	return optional(string(f), OpLTE, v)
}

func optional[T any](col string, op Op, v *T) ColumnValue {
	if v == nil {
		return ColumnValue{Column: col, Op: op, IsNull: true}
	}
	return ColumnValue{Column: col, Op: op, Value: *v}
}

var (
	_ FieldName = Basic[string]("")
	_ FieldName = BasicOpt[string]("")
	_ FieldName = Numeric[int]("")
	_ FieldName = NumericOpt[int]("")
)
