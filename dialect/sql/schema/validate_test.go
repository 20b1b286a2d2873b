package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relq/dialect"
	"github.com/syssam/relq/dialect/sql"
)

func ordersDef() TableDef {
	return TableDef{
		Ident: sql.TableIdent{Name: "orders"},
		Columns: []ColumnDef{
			{Name: "id", Type: "int64", PrimaryKey: true},
			{Name: "product_id", Type: "int64"},
		},
		BelongsTo: []RelationDef{{Table: sql.TableIdent{Name: "products"}, ForeignKey: "product_id"}},
	}
}

func TestValidateDiff(t *testing.T) {
	before := []*Table{
		NewTable(productsDef("id", "name", "legacy_col"), dialect.Postgres),
		NewTable(ordersDef(), dialect.Postgres),
	}
	fresh := productsDef("id", "name")
	fresh.Columns[1].Type = "[]byte"
	fresh.Columns[1].Nullable = true
	fresh.HasMany = nil
	after, err := Merge(before[0], fresh, dialect.Postgres)
	require.NoError(t, err)

	result := ValidateDiff(before, []*Table{after})
	require.True(t, result.HasErrors())
	assert.True(t, result.HasBreakingChanges())
	assert.Len(t, result.Errors, 2)
	assert.Contains(t, result.String(), "orders: table will be dropped [BREAKING]")
	assert.Contains(t, result.String(), "products.legacy_col: column will be dropped [BREAKING]")
	assert.Contains(t, result.String(), "column type changing from string to []byte")
	assert.Contains(t, result.String(), "column changing from NOT NULL to NULL")
	assert.Contains(t, result.String(), "has_many relation to orders via product_id will be dropped")

	result = ValidateDiff(before, []*Table{after}, AllowDropColumn(), AllowDropTable())
	assert.False(t, result.HasErrors())
	assert.True(t, result.HasWarnings())
}

func TestValidateDiff_NotNull(t *testing.T) {
	fresh := productsDef("id", "name")
	fresh.Columns[1].Nullable = true
	before := NewTable(fresh, dialect.MySQL)
	after := NewTable(productsDef("id", "name"), dialect.MySQL)

	result := ValidateDiff([]*Table{before}, []*Table{after})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "products.name: column changing from NULL to NOT NULL", result.Errors[0].Error())

	result = ValidateDiff([]*Table{before}, []*Table{after}, AllowNullToNotNull())
	assert.False(t, result.HasErrors())

	same := ValidateDiff([]*Table{after}, []*Table{after.Clone()})
	assert.Equal(t, "No issues found", same.String())
}

func TestValidateSchema(t *testing.T) {
	products := NewTable(productsDef("id", "name"), dialect.SQLite)
	orders := NewTable(ordersDef(), dialect.SQLite)
	result := ValidateSchema([]*Table{products, orders})
	assert.False(t, result.HasErrors(), result.String())

	// orders is gone: the has_many target no longer exists.
	result = ValidateSchema([]*Table{products})
	require.True(t, result.HasErrors())
	assert.Contains(t, result.String(), `has_many references non-existent table "orders"`)

	broken := orders.Clone()
	broken.BelongsTo[0].ForeignKey = "item_id"
	broken.Columns[1] = &Column{DBName: "item", Name: broken.Columns[0].Name, Type: "int64"}
	result = ValidateSchema([]*Table{products, broken})
	assert.Contains(t, result.String(), `belongs_to products references non-existent column "item_id"`)
	assert.Contains(t, result.String(), `duplicate field name "ID"`)
	assert.Contains(t, result.String(), "has_many references non-existent column orders.product_id")
}

func TestValidateTable(t *testing.T) {
	view := NewTable(TableDef{
		Ident:   sql.TableIdent{Name: "totals"},
		Kind:    KindView,
		Columns: []ColumnDef{{Name: "total", Type: "float64"}},
	}, dialect.Postgres)
	assert.False(t, ValidateTable(view).HasWarnings())

	keyless := NewTable(TableDef{
		Ident:   sql.TableIdent{Name: "events"},
		Columns: []ColumnDef{{Name: "payload", Type: "json.RawMessage"}},
	}, dialect.Postgres)
	assert.Contains(t, ValidateTable(keyless).String(), "table has no primary key")

	keyless.Columns[0].Name = "payload"
	keyless.Columns = append(keyless.Columns, &Column{DBName: "payload", Name: "Payload"})
	result := ValidateTable(keyless)
	assert.Contains(t, result.String(), `field name "payload" is not an exported Go identifier`)
	assert.Contains(t, result.String(), "events.payload: duplicate column name")
	assert.Contains(t, result.String(), "events.payload: column has no type")
}
