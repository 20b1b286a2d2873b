package sql

// RelKind is the direction of a relationship between two tables.
type RelKind int

const (
	// HasManyRel means the related table holds the foreign key.
	HasManyRel RelKind = iota
	// BelongsToRel means this table holds the foreign key.
	BelongsToRel
)

// String implements fmt.Stringer.
func (k RelKind) String() string {
	switch k {
	case HasManyRel:
		return "HasMany"
	case BelongsToRel:
		return "BelongsTo"
	default:
		return "RelKind(?)"
	}
}

// Relation describes how the table of a schema handle relates to the table
// of R. It is declared once per pair of tables by the generated handles and
// carries no query state.
type Relation[R Schema] struct {
	Kind RelKind
	// LocalKey is the join column on the declaring table ("my key").
	LocalKey string
	// ForeignKey is the join column on the related table ("their key").
	ForeignKey string
	// ForeignTable is the related table.
	ForeignTable TableIdent
}

// HasMany declares that rows of S own many rows of R through the foreign
// key column fk on R.
//
//	func (product) Orders() sql.Relation[order] { return sql.HasMany[product, order]("product_id") }
func HasMany[S, R Schema](fk string) Relation[R] {
	var (
		s S
		r R
	)
	return Relation[R]{
		Kind:         HasManyRel,
		LocalKey:     s.PrimaryKey(),
		ForeignKey:   fk,
		ForeignTable: r.Table(),
	}
}

// BelongsTo declares that rows of S reference a row of R through the foreign
// key column fk on S.
func BelongsTo[S, R Schema](fk string) Relation[R] {
	var r R
	return Relation[R]{
		Kind:         BelongsToRel,
		LocalKey:     fk,
		ForeignKey:   r.PrimaryKey(),
		ForeignTable: r.Table(),
	}
}

// MyKey returns the join column on the declaring table.
func (r Relation[R]) MyKey() string { return r.LocalKey }

// TheirKey returns the join column on the related table.
func (r Relation[R]) TheirKey() string { return r.ForeignKey }

// Keys returns the (outer, inner) join column pair. Filtering the declaring
// table by the related one uses the pair as declared; mapping a query over
// to the related table uses the mirror image.
func (r Relation[R]) Keys(inverted bool) (outer, inner string) {
	if inverted {
		return r.ForeignKey, r.LocalKey
	}
	return r.LocalKey, r.ForeignKey
}
