package sql

import "time"

// Hand-written schema handles, shaped like the generated ones.

type product struct{}

func (product) Table() TableIdent   { return TableIdent{Name: "products"} }
func (product) PrimaryKey() string  { return "id" }
func (product) Columns() []string   { return []string{"id", "name", "price"} }
func (product) ID() Numeric[int]    { return "id" }
func (product) Name() Basic[string] { return "name" }
func (product) Price() NumericOpt[float64] {
	return "price"
}
func (product) Description() BasicOpt[string] { return "description" }
func (product) Orders() Relation[order]      { return HasMany[product, order]("product_id") }

type order struct{}

func (order) Table() TableIdent              { return TableIdent{Name: "orders"} }
func (order) PrimaryKey() string             { return "id" }
func (order) Columns() []string              { return []string{"id", "product_id"} }
func (order) ID() Numeric[int]               { return "id" }
func (order) ProductID() Numeric[int]        { return "product_id" }
func (order) PlacedAt() NumericOpt[time.Time] { return "placed_at" }
func (order) Product() Relation[product]     { return BelongsTo[order, product]("product_id") }

// category references itself through parent_id.
type category struct{}

func (category) Table() TableIdent            { return TableIdent{Schema: "shop", Name: "categories"} }
func (category) PrimaryKey() string           { return "id" }
func (category) Columns() []string            { return []string{"id", "parent_id", "name"} }
func (category) Name() Basic[string]          { return "name" }
func (category) Parent() Relation[category]   { return BelongsTo[category, category]("parent_id") }
func (category) Children() Relation[category] { return HasMany[category, category]("parent_id") }

// legacy is a table whose name looks like a generated alias.
type legacy struct{}

func (legacy) Table() TableIdent          { return TableIdent{Name: "t1"} }
func (legacy) PrimaryKey() string         { return "id" }
func (legacy) Columns() []string          { return []string{"id"} }
func (legacy) ID() Numeric[int]           { return "id" }
func (legacy) Children() Relation[legacy] { return HasMany[legacy, legacy]("parent_id") }
