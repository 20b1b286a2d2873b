package cli

import (
	"bytes"
	"context"
	stdsql "database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relq/dialect/sql/schema"
)

const shopDDL = `
CREATE TABLE products (id INTEGER PRIMARY KEY, name TEXT NOT NULL, price REAL, note TEXT);
CREATE TABLE orders (
	id INTEGER PRIMARY KEY,
	product_id INTEGER NOT NULL REFERENCES products(id)
);`

func shopDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shop.db")
	db, err := stdsql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(shopDDL)
	require.NoError(t, err)
	return path
}

// run executes the CLI and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestUpdate(t *testing.T) {
	dsn := shopDB(t)
	config := filepath.Join(t.TempDir(), "relq.yaml")

	out, _, err := run(t, "update", "-c", config, "-b", "sqlite", "--dsn", dsn, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite: 2 added")
	assert.Contains(t, out, "dry run")
	_, err = os.Stat(config)
	assert.True(t, os.IsNotExist(err))

	out, _, err = run(t, "update", "-c", config, "-b", "sqlite", "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "2 added")

	file, err := schema.LoadFile(config)
	require.NoError(t, err)
	products, ok := file.Lookup("products")
	require.True(t, ok)
	assert.Equal(t, []string{"sqlite"}, backends(products))
	require.NotNil(t, products.PrimaryKey())
	assert.Equal(t, "id", products.PrimaryKey().DBName)
	orders, ok := file.Lookup("orders")
	require.True(t, ok)
	require.Len(t, orders.BelongsTo, 1)
	assert.Equal(t, "product_id", orders.BelongsTo[0].ForeignKey)

	out, _, err = run(t, "update", "-c", config, "-b", "sqlite", "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "2 unchanged")
	assert.Contains(t, out, "manifest is up to date")
}

func TestUpdate_BreakingChange(t *testing.T) {
	dsn := shopDB(t)
	config := filepath.Join(t.TempDir(), "relq.yaml")
	_, _, err := run(t, "update", "-c", config, "-b", "sqlite", "--dsn", dsn)
	require.NoError(t, err)

	db, err := stdsql.Open("sqlite", dsn)
	require.NoError(t, err)
	_, err = db.Exec("ALTER TABLE products DROP COLUMN note")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, _, err = run(t, "update", "-c", config, "-b", "sqlite", "--dsn", dsn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")
	file, err := schema.LoadFile(config)
	require.NoError(t, err)
	_, ok := file.Tables["products"].Column("note")
	assert.True(t, ok, "manifest must not be written")

	_, stderr, err := run(t, "update", "-c", config, "-b", "sqlite", "--dsn", dsn, "--force")
	require.NoError(t, err)
	assert.Contains(t, stderr, "forced=true")
	file, err = schema.LoadFile(config)
	require.NoError(t, err)
	_, ok = file.Tables["products"].Column("note")
	assert.False(t, ok)
}

func TestUpdate_Errors(t *testing.T) {
	config := filepath.Join(t.TempDir(), "relq.yaml")
	_, _, err := run(t, "update", "-c", config, "-b", "oracle", "--dsn", "x")
	assert.Error(t, err)
	_, _, err = run(t, "update", "-c", config, "--dsn", "x")
	assert.Error(t, err, "backend is required")
	_, _, err = run(t, "update", "-c", "", "-b", "sqlite", "--dsn", "x")
	assert.Error(t, err)
}

func TestGenerateAndValidate(t *testing.T) {
	dsn := shopDB(t)
	dir := t.TempDir()
	config := filepath.Join(dir, "relq.yaml")
	_, _, err := run(t, "generate", "-c", config, "-o", filepath.Join(dir, "models"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tables")

	_, _, err = run(t, "update", "-c", config, "-b", "sqlite", "--dsn", dsn)
	require.NoError(t, err)

	out, _, err := run(t, "validate", "-c", config)
	require.NoError(t, err)
	assert.Contains(t, out, "No issues found")

	_, stderr, err := run(t, "generate", "-c", config, "-o", filepath.Join(dir, "models"), "-b", "sqlite", "-v")
	require.NoError(t, err)
	assert.Contains(t, stderr, "generated schema handles")
	for _, name := range []string{"product.go", "order.go", "relq.go"} {
		assert.FileExists(t, filepath.Join(dir, "models", name))
	}
	data, err := os.ReadFile(filepath.Join(dir, "models", "order.go"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "func (OrderSchema) Product() sql.Relation[ProductSchema]")

	_, _, err = run(t, "generate", "-c", config, "-o", filepath.Join(dir, "models"), "-p", "my-models")
	assert.Error(t, err)
}

func TestValidate_Errors(t *testing.T) {
	config := filepath.Join(t.TempDir(), "relq.yaml")
	require.NoError(t, os.WriteFile(config, []byte(`orders:
  columns:
    - db_name: product_id
      name: ProductID
      type: int64
  belongs_to:
    - table: products
      foreign_key: product_id
`), 0o644))
	out, _, err := run(t, "validate", "-c", config)
	require.Error(t, err)
	assert.Contains(t, out, "Errors:")
	assert.Contains(t, out, "products")
}

func backends(t *schema.Table) []string {
	var names []string
	for _, b := range t.Databases {
		names = append(names, b.String())
	}
	return names
}
