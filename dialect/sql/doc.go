// Package sql builds typed relational queries and renders them for a backend.
//
// Queries are composed against schema handles: zero-size types, normally
// generated by relq, that name a table and hand out typed column handles.
//
//	type ProductSchema struct{}
//
//	func (ProductSchema) Table() sql.TableIdent       { return sql.TableIdent{Name: "products"} }
//	func (ProductSchema) PrimaryKey() string          { return "id" }
//	func (ProductSchema) Columns() []string           { return []string{"id", "name", "price"} }
//	func (ProductSchema) ID() sql.Numeric[int64]      { return "id" }
//	func (ProductSchema) Name() sql.Basic[string]     { return "name" }
//	func (ProductSchema) Price() sql.NumericOpt[float64] { return "price" }
//	func (ProductSchema) Orders() sql.Relation[OrderSchema] {
//	    return sql.HasMany[ProductSchema, OrderSchema]("product_id")
//	}
//
// # Column Handles
//
// A handle only offers the comparisons its type supports:
//
//   - Basic[T]: Equal, NotEqual
//   - BasicOpt[T]: the same on a nullable column, taking *T
//   - Numeric[T]: Equal, NotEqual, GT, LT, GTE, LTE
//   - NumericOpt[T]: the same on a nullable column, taking *T
//
// A nil value on an optional handle compares against NULL: Equal renders
// IS NULL, every other operator renders IS NOT NULL.
//
//	p.Price().Equal(nil)          // "price" IS NULL
//	p.Price().GT(sql.Some(2.5))   // "price" > $1
//
// # Building Queries
//
// Combinators never mutate their receiver, so queries can be branched:
//
//	base := sql.Select[ProductSchema]().
//	    Where(func(p ProductSchema) sql.Clause { return p.Name().NotEqual("draft") })
//	cheap := base.Where(func(p ProductSchema) sql.Clause { return p.Price().LT(sql.Some(5.0)) })
//	page := cheap.OrderByAsc(func(p ProductSchema) sql.FieldName { return p.Name() }).Limit(20).Offset(40)
//
// # Relations
//
// WhereRelation keeps the rows with at least one related row matching a
// filter; MapQuery moves a query to the related table. Both render a
// correlated EXISTS, so they never duplicate rows the way a JOIN would.
//
//	withBigOrders := sql.WhereRelation(sql.Select[ProductSchema](),
//	    func(p ProductSchema) sql.Relation[OrderSchema] { return p.Orders() },
//	    sql.Select[OrderSchema]().Where(func(o OrderSchema) sql.Clause { return o.Quantity().GT(100) }),
//	)
//	// SELECT "products"."id", ... FROM "products"
//	// WHERE EXISTS (SELECT 1 FROM "orders"
//	//   WHERE "orders"."product_id" = "products"."id" AND "orders"."quantity" > $1)
//
// A table that already appears in an enclosing query is aliased with the
// first free tN inside the subquery. Ordering and paging of a query used
// inside EXISTS are rendered, so Offset(1) on the inner query asks for at
// least two related rows.
//
// # Rendering and Execution
//
// Render returns the statement text and its arguments in placeholder order:
//
//	query, args, err := sql.Render(page, dialect.Postgres)
//
// Fetch and FetchWith render for a driver and run the statement:
//
//	drv, err := sql.Open(dialect.Postgres, dsn)
//	var rows sql.Rows
//	err = sql.FetchWith(ctx, drv, page, &rows)
//
// StatsDriver and LogDriver wrap a Driver with statistics and slog logging.
package sql
