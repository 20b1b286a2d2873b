package gen

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relq"
	"github.com/syssam/relq/dialect"
	"github.com/syssam/relq/dialect/sql"
	"github.com/syssam/relq/dialect/sql/schema"
)

func shopManifest(t *testing.T) *schema.File {
	t.Helper()
	f := schema.NewFile()
	defs := []schema.TableDef{
		{
			Ident: sql.TableIdent{Name: "products"},
			Columns: []schema.ColumnDef{
				{Name: "id", Type: "int64", PrimaryKey: true, Writeable: true},
				{Name: "name", Type: "string", Writeable: true},
				{Name: "price", Type: "float64", Nullable: true, Writeable: true},
				{Name: "table", Type: "string", Writeable: true},
				{Name: "ref", Type: "uuid.UUID", Nullable: true},
				{Name: "meta", Type: "json.RawMessage", Nullable: true},
			},
			HasMany: []schema.RelationDef{{Table: sql.TableIdent{Name: "orders"}, ForeignKey: "product_id"}},
		},
		{
			Ident: sql.TableIdent{Name: "orders"},
			Columns: []schema.ColumnDef{
				{Name: "id", Type: "int64", PrimaryKey: true},
				{Name: "product_id", Type: "int64"},
				{Name: "placed_at", Type: "time.Time", Nullable: true},
			},
			BelongsTo: []schema.RelationDef{{Table: sql.TableIdent{Name: "products"}, ForeignKey: "product_id"}},
		},
		{
			Ident: sql.TableIdent{Schema: "shop", Name: "categories"},
			Columns: []schema.ColumnDef{
				{Name: "id", Type: "int32", PrimaryKey: true},
				{Name: "parent_id", Type: "int32", Nullable: true},
			},
			BelongsTo: []schema.RelationDef{{Table: sql.TableIdent{Schema: "shop", Name: "categories"}, ForeignKey: "parent_id"}},
			HasMany:   []schema.RelationDef{{Table: sql.TableIdent{Schema: "shop", Name: "categories"}, ForeignKey: "parent_id"}},
		},
	}
	_, err := f.MergeAll(context.Background(), defs, dialect.Postgres)
	require.NoError(t, err)
	return f
}

// methods returns the method names declared on the receiver type.
func methods(t *testing.T, path, recv string) []string {
	t.Helper()
	file, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.ParseComments)
	require.NoError(t, err)
	var names []string
	for _, d := range file.Decls {
		fn, ok := d.(*ast.FuncDecl)
		if !ok || fn.Recv == nil {
			continue
		}
		if id, ok := fn.Recv.List[0].Type.(*ast.Ident); ok && id.Name == recv {
			names = append(names, fn.Name.Name)
		}
	}
	return names
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	require.NoError(t, Generate(context.Background(), shopManifest(t), WithOutDir(dir), WithWorkers(2)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"product.go", "order.go", "category.go", "relq.go"}, names)

	product := readFile(t, filepath.Join(dir, "product.go"))
	assert.Contains(t, product, "// Code generated by relq. DO NOT EDIT.")
	assert.Contains(t, product, "package models")
	assert.Contains(t, product, `"github.com/syssam/relq/dialect/sql"`)
	assert.Contains(t, product, `"github.com/google/uuid"`)
	assert.Contains(t, product, "type ProductSchema struct{}")
	assert.Contains(t, product, `func (ProductSchema) Table() sql.TableIdent`)
	assert.Regexp(t, `return sql.TableIdent\{\s*Name:\s+"products",\s*\}`, product)
	assert.Contains(t, product, `return []string{"id", "name", "price", "table", "ref", "meta"}`)
	assert.Contains(t, product, "func (ProductSchema) ID() sql.Numeric[int64]")
	assert.Contains(t, product, "func (ProductSchema) Name() sql.Basic[string]")
	assert.Contains(t, product, "func (ProductSchema) Price() sql.NumericOpt[float64]")
	assert.Contains(t, product, "func (ProductSchema) TableField() sql.Basic[string]")
	assert.Contains(t, product, "func (ProductSchema) Ref() sql.BasicOpt[uuid.UUID]")
	assert.Contains(t, product, "func (ProductSchema) Orders() sql.Relation[OrderSchema]")
	assert.Contains(t, product, `return sql.HasMany[ProductSchema, OrderSchema]("product_id")`)
	assert.Contains(t, product, "func QueryProducts() *sql.Query[ProductSchema]")
	assert.Regexp(t, `Price\s+\*float64\s+`+"`db:\"price\" json:\"price\"`", product)
	assert.Regexp(t, `Meta\s+json.RawMessage\s+`, product)

	// One accessor per column, one per relation, plus the three schema methods.
	assert.Len(t, methods(t, filepath.Join(dir, "product.go"), "ProductSchema"), 3+6+1)

	order := readFile(t, filepath.Join(dir, "order.go"))
	assert.Contains(t, order, "func (OrderSchema) PlacedAt() sql.NumericOpt[time.Time]")
	assert.Contains(t, order, "func (OrderSchema) ProductID() sql.Numeric[int64]")
	assert.Contains(t, order, `return sql.BelongsTo[OrderSchema, ProductSchema]("product_id")`)
	assert.Contains(t, order, "func (OrderSchema) Product() sql.Relation[ProductSchema]")

	category := readFile(t, filepath.Join(dir, "category.go"))
	assert.Regexp(t, `return sql.TableIdent\{\s*Name:\s+"categories",\s*Schema:\s+"shop",\s*\}`, category)
	assert.Contains(t, category, "func (CategorySchema) Parent() sql.Relation[CategorySchema]")
	assert.Contains(t, category, "func (CategorySchema) Categories() sql.Relation[CategorySchema]")
	assert.Len(t, methods(t, filepath.Join(dir, "category.go"), "CategorySchema"), 3+2+2)

	pkg := readFile(t, filepath.Join(dir, "relq.go"))
	assert.Contains(t, pkg, "// Package models holds the generated schema handles")
	assert.Contains(t, pkg, `var Tables = []string{"orders", "products", "shop.categories"}`)
}

func TestGenerate_Backend(t *testing.T) {
	f := shopManifest(t)
	_, err := f.MergeAll(context.Background(), []schema.TableDef{{
		Ident:   sql.TableIdent{Name: "products"},
		Columns: []schema.ColumnDef{{Name: "id", Type: "int64", PrimaryKey: true}},
		HasMany: []schema.RelationDef{{Table: sql.TableIdent{Name: "orders"}, ForeignKey: "product_id"}},
	}}, dialect.MySQL)
	require.NoError(t, err)

	cfg, err := NewConfig(WithOutDir(t.TempDir()), WithPackage("mysqlmodels"), WithBackend(dialect.MySQL))
	require.NoError(t, err)
	g, err := NewGenerator(cfg, f)
	require.NoError(t, err)
	files := g.Files()
	require.Len(t, files, 2)
	assert.Equal(t, "product.go", files[0].Name)
	assert.Equal(t, "products", files[0].Table)

	w := NewWriter(cfg)
	require.NoError(t, w.WriteAll(context.Background(), files))
	assert.Equal(t, 2, w.Metrics().FilesGenerated)
	product := readFile(t, filepath.Join(cfg.Target, "product.go"))
	// orders was never seen on MySQL, so the relation is left out.
	assert.NotContains(t, product, "Orders()")
}

func TestGenerate_Errors(t *testing.T) {
	err := Generate(context.Background(), schema.NewFile())
	assert.True(t, relq.IsConfigError(err))

	f := shopManifest(t)
	f.Tables["products"].Columns[2].Type = "decimal.Decimal"
	err = Generate(context.Background(), f, WithOutDir(t.TempDir()), WithPackage("models"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSchema)
	assert.Contains(t, err.Error(), "column price")

	f = shopManifest(t)
	f.Tables["orders"].BelongsTo[0].Table = "vendors"
	err = Generate(context.Background(), f, WithOutDir(t.TempDir()), WithPackage("models"))
	assert.True(t, IsSchemaError(err))

	f = shopManifest(t)
	f.Tables["shop.categories"].Model = ptr("Product")
	err = Generate(context.Background(), f, WithOutDir(t.TempDir()), WithPackage("models"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clashes with table")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = Generate(ctx, shopManifest(t), WithOutDir(t.TempDir()), WithPackage("models"))
	assert.ErrorIs(t, err, context.Canceled)
}

func ptr[T any](v T) *T { return &v }
