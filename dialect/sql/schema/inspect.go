package schema

import (
	"context"
	stdsql "database/sql"
	"fmt"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	atlas "ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/relq"
	"github.com/syssam/relq/dialect"
	"github.com/syssam/relq/dialect/sql"
)

// Inspect reads the tables of a live database. Named schemas restrict the
// inspection; without any, every schema visible to the connection is read.
// SQL Server has no inspector and yields an unsupported dialect error.
func Inspect(ctx context.Context, backend dialect.Backend, db *stdsql.DB, schemas ...string) ([]TableDef, error) {
	drv, err := inspector(backend, db)
	if err != nil {
		return nil, err
	}
	realm, err := drv.InspectRealm(ctx, &atlas.InspectRealmOption{Schemas: schemas})
	if err != nil {
		return nil, fmt.Errorf("schema: inspect %s: %w", backend, err)
	}
	return FromRealm(realm), nil
}

func inspector(backend dialect.Backend, db *stdsql.DB) (migrate.Driver, error) {
	var (
		drv migrate.Driver
		err error
	)
	switch backend {
	case dialect.MySQL:
		drv, err = mysql.Open(db)
	case dialect.Postgres:
		drv, err = postgres.Open(db)
	case dialect.SQLite:
		drv, err = sqlite.Open(db)
	default:
		return nil, relq.UnsupportedDialectError(string(backend))
	}
	if err != nil {
		return nil, fmt.Errorf("schema: open %s inspector: %w", backend, err)
	}
	return drv, nil
}

// FromRealm converts an inspected realm into table definitions, in realm
// order. Single-column foreign keys become a belongs_to relation on the
// owning table and a has_many relation on the referenced one. Schema names
// are kept only when the realm spans more than one schema.
func FromRealm(realm *atlas.Realm) []TableDef {
	if realm == nil {
		return nil
	}
	qualify := len(realm.Schemas) > 1
	ident := func(s *atlas.Schema, name string) sql.TableIdent {
		id := sql.TableIdent{Name: name}
		if qualify && s != nil {
			id.Schema = s.Name
		}
		return id
	}

	var (
		defs  []TableDef
		index = make(map[sql.TableIdent]int)
	)
	for _, s := range realm.Schemas {
		for _, t := range s.Tables {
			def := TableDef{Ident: ident(s, t.Name), Kind: KindTable}
			for _, c := range t.Columns {
				def.Columns = append(def.Columns, columnDef(c, isPrimaryKey(t, c), !isGenerated(c)))
			}
			index[def.Ident] = len(defs)
			defs = append(defs, def)
		}
		for _, v := range s.Views {
			def := TableDef{Ident: ident(s, v.Name), Kind: KindView}
			for _, c := range v.Columns {
				def.Columns = append(def.Columns, columnDef(c, false, false))
			}
			index[def.Ident] = len(defs)
			defs = append(defs, def)
		}
	}
	for _, s := range realm.Schemas {
		for _, t := range s.Tables {
			owner := ident(s, t.Name)
			for _, fk := range t.ForeignKeys {
				if len(fk.Columns) != 1 || fk.RefTable == nil {
					continue
				}
				ref := ident(fk.RefTable.Schema, fk.RefTable.Name)
				if fk.RefTable.Schema == nil {
					ref.Schema = owner.Schema
				}
				col := fk.Columns[0].Name
				i := index[owner]
				defs[i].BelongsTo = append(defs[i].BelongsTo, RelationDef{Table: ref, ForeignKey: col})
				if j, ok := index[ref]; ok {
					defs[j].HasMany = append(defs[j].HasMany, RelationDef{Table: owner, ForeignKey: col})
				}
			}
		}
	}
	return defs
}

func columnDef(c *atlas.Column, pk, writeable bool) ColumnDef {
	def := ColumnDef{
		Name:       c.Name,
		Type:       "any",
		PrimaryKey: pk,
		Writeable:  writeable,
	}
	if c.Type != nil {
		def.Type = goType(c.Type.Type)
		def.DBType = c.Type.Raw
		def.Nullable = c.Type.Null
		if def.DBType == "" && c.Type.Type != nil {
			def.DBType = typeName(c.Type.Type)
		}
	}
	return def
}

// goType returns the Go type a column of the given database type scans into.
func goType(t atlas.Type) string {
	switch t := t.(type) {
	case *atlas.BoolType:
		return "bool"
	case *atlas.IntegerType:
		if t.Unsigned {
			return "uint64"
		}
		return "int64"
	case *atlas.FloatType, *atlas.DecimalType:
		return "float64"
	case *atlas.StringType, *atlas.EnumType:
		return "string"
	case *atlas.TimeType:
		return "time.Time"
	case *atlas.BinaryType:
		return "[]byte"
	case *atlas.JSONType:
		return "json.RawMessage"
	case *atlas.UUIDType:
		return "uuid.UUID"
	default:
		return "any"
	}
}

func typeName(t atlas.Type) string {
	switch t := t.(type) {
	case *atlas.BoolType:
		return t.T
	case *atlas.IntegerType:
		return t.T
	case *atlas.FloatType:
		return t.T
	case *atlas.DecimalType:
		return t.T
	case *atlas.StringType:
		return t.T
	case *atlas.TimeType:
		return t.T
	case *atlas.BinaryType:
		return t.T
	case *atlas.JSONType:
		return t.T
	case *atlas.UUIDType:
		return t.T
	case *atlas.EnumType:
		return t.T
	default:
		return ""
	}
}

func isPrimaryKey(t *atlas.Table, c *atlas.Column) bool {
	if t.PrimaryKey == nil {
		return false
	}
	for _, p := range t.PrimaryKey.Parts {
		if p.C != nil && p.C.Name == c.Name {
			return true
		}
	}
	return false
}

func isGenerated(c *atlas.Column) bool {
	for _, a := range c.Attrs {
		if _, ok := a.(*atlas.GeneratedExpr); ok {
			return true
		}
	}
	return false
}
