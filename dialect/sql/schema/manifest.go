// Package schema holds the table manifest: the persisted, hand-editable
// description of every table and view that code generation is driven from.
//
// A manifest is created from live introspection once, and refreshed on every
// later run by Merge. Tables flagged manual_update are never touched again.
package schema

import (
	"slices"

	"github.com/go-openapi/inflect"

	"github.com/syssam/relq"
	"github.com/syssam/relq/dialect"
	"github.com/syssam/relq/dialect/sql"
)

// Kind tells whether a manifest entry is a table or a view.
type Kind string

const (
	KindTable Kind = "table"
	KindView  Kind = "view"
)

type (
	// Table is the manifest of one table or view.
	Table struct {
		Schema       *string           `yaml:"schema,omitempty"`
		Name         string            `yaml:"name"`
		ManualUpdate bool              `yaml:"manual_update"`
		Model        *string           `yaml:"model,omitempty"`
		Type         Kind              `yaml:"type"`
		Columns      []*Column         `yaml:"columns"`
		BelongsTo    []*Relation       `yaml:"belongs_to,omitempty"`
		HasMany      []*Relation       `yaml:"has_many,omitempty"`
		Databases    []dialect.Backend `yaml:"databases"`
	}

	// Column is a manifest column. DBName is its identity; Name is the
	// generated Go field name and may be edited by hand.
	Column struct {
		DBName     string `yaml:"db_name"`
		Name       string `yaml:"name"`
		Type       string `yaml:"type"`
		DBType     string `yaml:"db_type,omitempty"`
		Nullable   bool   `yaml:"nullable"`
		PrimaryKey bool   `yaml:"primary_key"`
		Writeable  bool   `yaml:"writeable"`
	}

	// Relation points at another manifest table through a foreign key.
	Relation struct {
		Schema     *string `yaml:"schema,omitempty"`
		Table      string  `yaml:"table"`
		ForeignKey string  `yaml:"foreign_key"`
		Model      *string `yaml:"model,omitempty"`
	}
)

type (
	// TableDef is a freshly introspected table or view.
	TableDef struct {
		Ident     sql.TableIdent
		Kind      Kind
		Columns   []ColumnDef
		BelongsTo []RelationDef
		HasMany   []RelationDef
	}

	// ColumnDef is an introspected column. Type is the Go type the column
	// scans into, DBType the database type it was declared with.
	ColumnDef struct {
		Name       string
		Type       string
		DBType     string
		Nullable   bool
		PrimaryKey bool
		Writeable  bool
	}

	// RelationDef is an introspected foreign key, seen from either side.
	RelationDef struct {
		Table      sql.TableIdent
		ForeignKey string
	}
)

// NewTable creates the manifest of a table seen for the first time.
func NewTable(fresh TableDef, backend dialect.Backend) *Table {
	t := &Table{
		Databases: []dialect.Backend{backend},
	}
	t.refresh(fresh)
	t.Columns = mergeColumns(nil, fresh.Columns)
	return t
}

// Merge reconciles a fresh introspection of a table into its previous
// manifest and returns the result. prev is never modified. A nil prev yields
// NewTable, and a prev with ManualUpdate set is returned as is.
func Merge(prev *Table, fresh TableDef, backend dialect.Backend) (*Table, error) {
	if prev == nil {
		return NewTable(fresh, backend), nil
	}
	if prev.Ident() != fresh.Ident {
		return nil, relq.NewMergeError(prev.Ident().String(), fresh.Ident.String())
	}
	if prev.ManualUpdate {
		return prev, nil
	}
	t := prev.Clone()
	t.refresh(fresh)
	t.Columns = mergeColumns(t.Columns, fresh.Columns)
	if !slices.Contains(t.Databases, backend) {
		t.Databases = append(t.Databases, backend)
	}
	return t, nil
}

// refresh replaces the attributes that carry no user-editable state.
func (t *Table) refresh(fresh TableDef) {
	t.Name = fresh.Ident.Name
	t.Schema = nil
	if fresh.Ident.Schema != "" {
		t.Schema = ptr(fresh.Ident.Schema)
	}
	t.Type = fresh.Kind
	if t.Type == "" {
		t.Type = KindTable
	}
	t.BelongsTo = relations(fresh.BelongsTo)
	t.HasMany = relations(fresh.HasMany)
}

// mergeColumns drops the columns that disappeared, refreshes the ones still
// present in place and appends the new ones in introspection order.
func mergeColumns(prev []*Column, fresh []ColumnDef) []*Column {
	byName := make(map[string]ColumnDef, len(fresh))
	for _, c := range fresh {
		byName[c.Name] = c
	}
	cols := make([]*Column, 0, len(fresh))
	seen := make(map[string]bool, len(prev))
	for _, c := range prev {
		def, ok := byName[c.DBName]
		if !ok || seen[c.DBName] {
			continue
		}
		seen[c.DBName] = true
		c.update(def)
		cols = append(cols, c)
	}
	for _, def := range fresh {
		if seen[def.Name] {
			continue
		}
		seen[def.Name] = true
		c := &Column{DBName: def.Name, Name: fieldName(def.Name)}
		c.update(def)
		cols = append(cols, c)
	}
	return cols
}

func (c *Column) update(def ColumnDef) {
	c.Type = def.Type
	c.DBType = def.DBType
	c.Nullable = def.Nullable
	c.PrimaryKey = def.PrimaryKey
	c.Writeable = def.Writeable
}

func relations(defs []RelationDef) []*Relation {
	if len(defs) == 0 {
		return nil
	}
	rels := make([]*Relation, len(defs))
	for i, d := range defs {
		rels[i] = &Relation{Table: d.Table.Name, ForeignKey: d.ForeignKey}
		if d.Table.Schema != "" {
			rels[i].Schema = ptr(d.Table.Schema)
		}
	}
	return rels
}

// Ident returns the identity of the table in the database.
func (t *Table) Ident() sql.TableIdent {
	id := sql.TableIdent{Name: t.Name}
	if t.Schema != nil {
		id.Schema = *t.Schema
	}
	return id
}

// Ident returns the identity of the related table.
func (r *Relation) Ident() sql.TableIdent {
	id := sql.TableIdent{Name: r.Table}
	if r.Schema != nil {
		id.Schema = *r.Schema
	}
	return id
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := *t
	c.Schema = clonePtr(t.Schema)
	c.Model = clonePtr(t.Model)
	c.Columns = make([]*Column, len(t.Columns))
	for i, col := range t.Columns {
		cc := *col
		c.Columns[i] = &cc
	}
	c.BelongsTo = cloneRelations(t.BelongsTo)
	c.HasMany = cloneRelations(t.HasMany)
	c.Databases = slices.Clone(t.Databases)
	return &c
}

func cloneRelations(rels []*Relation) []*Relation {
	if rels == nil {
		return nil
	}
	out := make([]*Relation, len(rels))
	for i, r := range rels {
		rc := *r
		rc.Schema = clonePtr(r.Schema)
		rc.Model = clonePtr(r.Model)
		out[i] = &rc
	}
	return out
}

// PrimaryKey returns the first primary key column, or nil for keyless views.
func (t *Table) PrimaryKey() *Column {
	for _, c := range t.Columns {
		if c.PrimaryKey {
			return c
		}
	}
	return nil
}

// Column returns the column with the given database name.
func (t *Table) Column(dbName string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.DBName == dbName {
			return c, true
		}
	}
	return nil, false
}

// Supports reports if the table was introspected on the backend.
func (t *Table) Supports(b dialect.Backend) bool {
	return slices.Contains(t.Databases, b)
}

// StructName returns the name of the generated model struct: the model
// override if set, or the singular table name, in Pascal case.
func (t *Table) StructName() string {
	return inflect.Camelize(t.baseName())
}

// ModuleName returns the snake-cased name of the generated file and handle.
func (t *Table) ModuleName() string {
	return inflect.Underscore(t.baseName())
}

func (t *Table) baseName() string {
	if t.Model != nil && *t.Model != "" {
		return *t.Model
	}
	return inflect.Singularize(t.Name)
}

// StructName returns the model struct name of the related table.
func (r *Relation) StructName() string {
	if r.Model != nil && *r.Model != "" {
		return inflect.Camelize(*r.Model)
	}
	return inflect.Camelize(inflect.Singularize(r.Table))
}

func fieldName(dbName string) string {
	return GoName(dbName)
}

func ptr[T any](v T) *T { return &v }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return ptr(*p)
}
