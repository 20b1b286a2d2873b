package gen

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"

	"github.com/syssam/relq/dialect/sql/schema"
)

const sqlPkg = "github.com/syssam/relq/dialect/sql"

// reserved are the method names every schema handle already has.
var reserved = []string{"Table", "PrimaryKey", "Columns"}

// Generate writes the schema handles of every manifest table to the
// configured output directory.
func Generate(ctx context.Context, file *schema.File, opts ...Option) error {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return err
	}
	g, err := NewGenerator(cfg, file)
	if err != nil {
		return err
	}
	return NewWriter(cfg).WriteAll(ctx, g.Files())
}

// Generator turns manifest tables into jennifer files.
type Generator struct {
	cfg    *Config
	tables []*table
	byID   map[string]*table
}

// table is a manifest table with its Go names resolved.
type table struct {
	*schema.Table
	model   string
	handle  string
	query   string
	file    string
	columns []column
	rels    []relation
}

type column struct {
	*schema.Column
	accessor string
	goType   jen.Code
	handle   jen.Code
	opt      bool
}

type relation struct {
	accessor string
	kind     string // "HasMany" or "BelongsTo"
	fk       string
	target   *table
}

// NewGenerator validates the manifest and resolves every generated name.
func NewGenerator(cfg *Config, file *schema.File) (*Generator, error) {
	all := file.Sorted()
	if res := schema.ValidateSchema(all); res.HasErrors() {
		e := res.Errors[0]
		return nil, NewSchemaError(e.Table, e.Column, e.Message, nil)
	}
	g := &Generator{cfg: cfg, byID: make(map[string]*table)}
	for _, t := range all {
		if cfg.Backend != "" && !t.Supports(cfg.Backend) {
			cfg.Logger.Debug("skipping table", "table", t.Ident(), "backend", cfg.Backend)
			continue
		}
		gt, err := newTable(t)
		if err != nil {
			return nil, err
		}
		g.tables = append(g.tables, gt)
		g.byID[t.Ident().String()] = gt
	}
	if err := g.checkNames(); err != nil {
		return nil, err
	}
	for _, t := range g.tables {
		g.resolveRelations(t)
	}
	return g, nil
}

func newTable(t *schema.Table) (*table, error) {
	name := t.StructName()
	gt := &table{
		Table:  t,
		model:  name,
		handle: name + "Schema",
		query:  "Query" + inflect.Pluralize(name),
		file:   t.ModuleName() + ".go",
	}
	for _, c := range t.Columns {
		typ, err := goType(c.Type)
		if err != nil {
			return nil, NewSchemaError(t.Ident().String(), c.DBName, "unsupported column type", err)
		}
		col := column{Column: c, accessor: c.Name, goType: typ}
		if slices.Contains(reserved, col.accessor) {
			col.accessor += "Field"
		}
		// Slices and any already hold nil; they are not wrapped in pointers.
		col.opt = c.Nullable && !strings.HasPrefix(c.Type, "[]") && c.Type != "any" && c.Type != "json.RawMessage"
		kind := "Basic"
		if isOrdered(c.Type) {
			kind = "Numeric"
		}
		if c.Nullable {
			kind += "Opt"
		}
		col.handle = jen.Qual(sqlPkg, kind).Types(typ)
		gt.columns = append(gt.columns, col)
	}
	return gt, nil
}

// checkNames rejects tables whose generated type names collide.
func (g *Generator) checkNames() error {
	owner := make(map[string]string)
	for _, t := range g.tables {
		id := t.Ident().String()
		for _, name := range []string{t.model, t.handle, t.query, t.file} {
			if prev, ok := owner[name]; ok {
				return NewSchemaError(id, "", fmt.Sprintf("generated name %s clashes with table %s, set a model name", name, prev), nil)
			}
			owner[name] = id
		}
	}
	return nil
}

// resolveRelations names the relation accessors of t. Relations to tables
// outside the generated set, or lacking the key they join on, are left out.
func (g *Generator) resolveRelations(t *table) {
	used := make(map[string]bool)
	for _, name := range reserved {
		used[name] = true
	}
	for _, c := range t.columns {
		used[c.accessor] = true
	}
	pick := func(names ...string) string {
		for _, n := range names {
			if n != "" && !used[n] {
				used[n] = true
				return n
			}
		}
		base := names[len(names)-1]
		for i := 2; ; i++ {
			if n := fmt.Sprintf("%s%d", base, i); !used[n] {
				used[n] = true
				return n
			}
		}
	}
	for _, r := range t.BelongsTo {
		target := g.byID[r.Ident().String()]
		if target == nil || target.PrimaryKey() == nil {
			g.cfg.Logger.Debug("skipping relation", "table", t.Ident(), "belongs_to", r.Ident())
			continue
		}
		name := strings.TrimSuffix(strings.TrimSuffix(r.ForeignKey, "_id"), "ID")
		if name == "" || name == r.ForeignKey {
			name = ""
		} else {
			name = schema.GoName(name)
		}
		t.rels = append(t.rels, relation{
			accessor: pick(name, r.StructName(), r.StructName()+"Rel"),
			kind:     "BelongsTo",
			fk:       r.ForeignKey,
			target:   target,
		})
	}
	for _, r := range t.HasMany {
		target := g.byID[r.Ident().String()]
		if target == nil || t.PrimaryKey() == nil {
			g.cfg.Logger.Debug("skipping relation", "table", t.Ident(), "has_many", r.Ident())
			continue
		}
		plural := schema.Plural(target.model)
		t.rels = append(t.rels, relation{
			accessor: pick(plural, plural+"By"+schema.GoName(strings.TrimSuffix(r.ForeignKey, "_id"))),
			kind:     "HasMany",
			fk:       r.ForeignKey,
			target:   target,
		})
	}
}

// Output is one generated file, not yet written.
type Output struct {
	Name  string // file name relative to the target directory
	Table string // table identity, empty for package-level files
	File  *jen.File
}

// Files returns one file per table plus the package file.
func (g *Generator) Files() []Output {
	files := make([]Output, 0, len(g.tables)+1)
	for _, t := range g.tables {
		files = append(files, Output{Name: t.file, Table: t.Ident().String(), File: g.tableFile(t)})
	}
	files = append(files, Output{Name: "relq.go", File: g.packageFile()})
	return files
}

func (g *Generator) newFile() *jen.File {
	f := jen.NewFile(g.cfg.Package)
	if g.cfg.Header != "" {
		f.HeaderComment(g.cfg.Header)
	}
	return f
}

func (g *Generator) packageFile() *jen.File {
	f := g.newFile()
	f.PackageComment(fmt.Sprintf("Package %s holds the generated schema handles of the database tables.", g.cfg.Package))
	f.Comment("Tables lists the identity of every generated table.")
	f.Var().Id("Tables").Op("=").Index().String().ValuesFunc(func(grp *jen.Group) {
		for _, t := range g.tables {
			grp.Lit(t.Ident().String())
		}
	})
	return f
}

func (g *Generator) tableFile(t *table) *jen.File {
	f := g.newFile()
	id := t.Ident()
	kind := "table"
	if t.Type == schema.KindView {
		kind = "view"
	}

	// Model struct.
	f.Commentf("%s is a row of the %s %s.", t.model, id, kind)
	f.Type().Id(t.model).StructFunc(func(grp *jen.Group) {
		for _, c := range t.columns {
			typ := c.goType
			if c.opt {
				typ = jen.Op("*").Add(c.goType)
			}
			grp.Id(c.Name).Add(typ).Tag(map[string]string{"db": c.DBName, "json": c.DBName})
		}
	})
	f.Line()

	// Schema handle.
	f.Commentf("%s is the schema handle of the %s %s.", t.handle, id, kind)
	f.Type().Id(t.handle).Struct()
	f.Line()
	recv := jen.Params(jen.Id(t.handle))

	f.Func().Add(recv).Id("Table").Params().Qual(sqlPkg, "TableIdent").Block(
		jen.Return(jen.Qual(sqlPkg, "TableIdent").Values(jen.DictFunc(func(d jen.Dict) {
			if id.Schema != "" {
				d[jen.Id("Schema")] = jen.Lit(id.Schema)
			}
			d[jen.Id("Name")] = jen.Lit(id.Name)
		}))),
	)
	pk := ""
	if c := t.PrimaryKey(); c != nil {
		pk = c.DBName
	}
	f.Func().Add(recv).Id("PrimaryKey").Params().String().Block(jen.Return(jen.Lit(pk)))
	f.Func().Add(recv).Id("Columns").Params().Index().String().Block(
		jen.Return(jen.Index().String().ValuesFunc(func(grp *jen.Group) {
			for _, c := range t.columns {
				grp.Lit(c.DBName)
			}
		})),
	)

	for _, c := range t.columns {
		f.Line()
		f.Commentf("%s is the %s column.", c.accessor, c.DBName)
		f.Func().Add(recv).Id(c.accessor).Params().Add(c.handle).Block(jen.Return(jen.Lit(c.DBName)))
	}
	for _, r := range t.rels {
		f.Line()
		if r.kind == "HasMany" {
			f.Commentf("%s follows %s.%s back to this %s.", r.accessor, r.target.Ident(), r.fk, kind)
		} else {
			f.Commentf("%s follows %s to the owning %s row.", r.accessor, r.fk, r.target.Ident())
		}
		f.Func().Add(recv).Id(r.accessor).Params().Qual(sqlPkg, "Relation").Types(jen.Id(r.target.handle)).Block(
			jen.Return(jen.Qual(sqlPkg, r.kind).Types(jen.Id(t.handle), jen.Id(r.target.handle)).Call(jen.Lit(r.fk))),
		)
	}

	f.Line()
	f.Commentf("%s starts a query over the %s %s.", t.query, id, kind)
	f.Func().Id(t.query).Params().Op("*").Qual(sqlPkg, "Query").Types(jen.Id(t.handle)).Block(
		jen.Return(jen.Qual(sqlPkg, "Select").Types(jen.Id(t.handle)).Call()),
	)
	f.Var().Id("_").Qual(sqlPkg, "Schema").Op("=").Id(t.handle).Values()
	return f
}

// goType returns the jennifer code of a manifest column type.
func goType(t string) (jen.Code, error) {
	switch t {
	case "bool", "string", "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "float32", "float64", "any":
		return jen.Id(t), nil
	case "[]byte":
		return jen.Index().Byte(), nil
	case "time.Time":
		return jen.Qual("time", "Time"), nil
	case "json.RawMessage":
		return jen.Qual("encoding/json", "RawMessage"), nil
	case "uuid.UUID":
		return jen.Qual("github.com/google/uuid", "UUID"), nil
	default:
		return nil, fmt.Errorf("type %q", t)
	}
}

// isOrdered reports if values of the type support range comparisons.
func isOrdered(t string) bool {
	switch t {
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64",
		"float32", "float64", "time.Time":
		return true
	}
	return false
}
