package schema

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relq"
	"github.com/syssam/relq/dialect"
	"github.com/syssam/relq/dialect/sql"
)

const manifestYAML = `products:
  name: products
  manual_update: false
  type: table
  columns:
    - db_name: id
      name: ID
      type: int64
      nullable: false
      primary_key: true
      writeable: true
    - db_name: name
      name: Title
      type: string
      nullable: false
      primary_key: false
      writeable: true
  databases:
    - postgres
shop.categories:
  manual_update: true
  columns:
    - db_name: id
      name: ID
      type: int64
      primary_key: true
  databases:
    - mysql
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(manifestYAML))
	require.NoError(t, err)
	require.Len(t, f.Tables, 2)

	products, ok := f.Lookup("products")
	require.True(t, ok)
	assert.Equal(t, "Title", products.Columns[1].Name)
	assert.Equal(t, []dialect.Backend{dialect.Postgres}, products.Databases)

	// Names left out are taken from the key.
	categories, ok := f.Lookup("shop.categories")
	require.True(t, ok)
	assert.Equal(t, sql.TableIdent{Schema: "shop", Name: "categories"}, categories.Ident())
	assert.Equal(t, KindTable, categories.Type)
	assert.True(t, categories.ManualUpdate)

	_, err = Parse([]byte("products: [1, 2]"))
	assert.Error(t, err)
	_, err = Parse([]byte("products:\n"))
	assert.Error(t, err)
}

func TestFile_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, f.Tables)

	_, err = f.MergeAll(context.Background(), []TableDef{productsDef("id", "name")}, dialect.SQLite)
	require.NoError(t, err)
	require.NoError(t, f.Save(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, f.Tables, loaded.Tables)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "db_name: id")
	assert.Contains(t, string(data), "manual_update: false")
}

func TestFile_MergeAll(t *testing.T) {
	f, err := Parse([]byte(manifestYAML))
	require.NoError(t, err)
	f.Tables["legacy"] = NewTable(TableDef{Ident: sql.TableIdent{Name: "legacy"}}, dialect.Postgres)

	categories := TableDef{
		Ident:   sql.TableIdent{Schema: "shop", Name: "categories"},
		Columns: []ColumnDef{{Name: "id", Type: "int64"}, {Name: "slug", Type: "string"}},
	}
	orders := TableDef{
		Ident:   sql.TableIdent{Name: "orders"},
		Columns: []ColumnDef{{Name: "id", Type: "int64", PrimaryKey: true}},
	}
	products := productsDef("id", "name", "price")
	report, err := f.MergeAll(context.Background(), []TableDef{products, categories, orders}, dialect.MySQL)
	require.NoError(t, err)

	assert.Equal(t, []string{"orders"}, report.Added)
	assert.Equal(t, []string{"products"}, report.Updated)
	assert.Equal(t, []string{"shop.categories"}, report.Skipped)
	assert.Equal(t, []string{"legacy"}, report.Missing)
	assert.True(t, report.Changed())
	assert.Contains(t, report.String(), "missing from database: legacy")

	p := f.Tables["products"]
	assert.Equal(t, []string{"id", "name", "price"}, dbNames(p))
	assert.Equal(t, "Title", p.Columns[1].Name)
	assert.Equal(t, []dialect.Backend{dialect.Postgres, dialect.MySQL}, p.Databases)
	assert.Len(t, f.Tables["shop.categories"].Columns, 1)
	assert.Contains(t, f.Tables, "legacy")

	report, err = f.MergeAll(context.Background(), []TableDef{products, categories, orders}, dialect.MySQL)
	require.NoError(t, err)
	assert.False(t, report.Changed())
	assert.Equal(t, []string{"orders", "products"}, report.Unchanged)
}

func TestFile_MergeAll_Errors(t *testing.T) {
	f := NewFile()
	_, err := f.MergeAll(context.Background(), []TableDef{productsDef("id")}, "oracle")
	require.Error(t, err)
	assert.Empty(t, f.Tables)

	// A hand-edited key that no longer matches the table it holds.
	f.Tables["products"] = NewTable(TableDef{Ident: sql.TableIdent{Name: "items"}}, dialect.MySQL)
	_, err = f.MergeAll(context.Background(), []TableDef{productsDef("id")}, dialect.MySQL)
	require.Error(t, err)
	assert.ErrorIs(t, err, relq.ErrInvalidMerge)
	assert.Equal(t, "items", f.Tables["products"].Name)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFile().MergeAll(ctx, []TableDef{productsDef("id")}, dialect.MySQL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFile_Sorted(t *testing.T) {
	f := NewFile()
	for _, name := range []string{"b", "c", "a"} {
		f.Tables[name] = &Table{Name: name}
	}
	var names []string
	for _, tbl := range f.Sorted() {
		names = append(names, tbl.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}
