package schema

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"slices"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/syssam/relq/dialect"
)

// DefaultFile is the manifest file name used when none is given.
const DefaultFile = "relq.yaml"

// File is a manifest file: every known table keyed by its identity
// ("schema.name", or "name" for tables outside a named schema).
type File struct {
	Tables map[string]*Table
}

// NewFile returns an empty manifest file.
func NewFile() *File {
	return &File{Tables: make(map[string]*Table)}
}

// LoadFile reads a manifest file. A missing file yields an empty manifest.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewFile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("schema: read manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes a manifest from its YAML form.
func Parse(data []byte) (*File, error) {
	f := NewFile()
	if err := yaml.Unmarshal(data, &f.Tables); err != nil {
		return nil, fmt.Errorf("schema: decode manifest: %w", err)
	}
	if f.Tables == nil {
		f.Tables = make(map[string]*Table)
	}
	for key, t := range f.Tables {
		if t == nil {
			return nil, fmt.Errorf("schema: manifest entry %q is empty", key)
		}
		if t.Name == "" {
			t.Name = key
			if i := strings.LastIndexByte(key, '.'); i > 0 {
				t.Schema, t.Name = ptr(key[:i]), key[i+1:]
			}
		}
		if t.Type == "" {
			t.Type = KindTable
		}
	}
	return f, nil
}

// Bytes encodes the manifest. Keys are written in sorted order.
func (f *File) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f.Tables); err != nil {
		return nil, fmt.Errorf("schema: encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the manifest to path. The previous file is replaced atomically.
func (f *File) Save(path string) error {
	data, err := f.Bytes()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("schema: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("schema: write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("schema: write manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("schema: replace manifest: %w", err)
	}
	return nil
}

// Sorted returns the tables ordered by identity.
func (f *File) Sorted() []*Table {
	keys := make([]string, 0, len(f.Tables))
	for k := range f.Tables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tables := make([]*Table, len(keys))
	for i, k := range keys {
		tables[i] = f.Tables[k]
	}
	return tables
}

// Lookup returns the table stored under the identity.
func (f *File) Lookup(ident string) (*Table, bool) {
	t, ok := f.Tables[ident]
	return t, ok
}

// MergeReport describes what a MergeAll run did to the manifest.
type MergeReport struct {
	Backend   dialect.Backend
	Added     []string
	Updated   []string
	Unchanged []string
	// Skipped lists tables left alone because they are flagged manual_update.
	Skipped []string
	// Missing lists manifest tables absent from the introspection. They are
	// kept in the manifest; removing them is up to the user.
	Missing []string
}

// Changed reports if the run modified the manifest.
func (r *MergeReport) Changed() bool {
	return len(r.Added) > 0 || len(r.Updated) > 0
}

func (r *MergeReport) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d added, %d updated, %d unchanged, %d skipped",
		r.Backend, len(r.Added), len(r.Updated), len(r.Unchanged), len(r.Skipped))
	if len(r.Missing) > 0 {
		fmt.Fprintf(&sb, ", missing from database: %s", strings.Join(r.Missing, ", "))
	}
	return sb.String()
}

type mergeResult struct {
	key   string
	table *Table
	added bool
	same  bool
	skip  bool
}

// MergeAll merges a whole introspection run into the manifest. Tables are
// merged concurrently; the manifest map is only written once all merges
// succeeded, so a failed run leaves the file untouched.
func (f *File) MergeAll(ctx context.Context, fresh []TableDef, backend dialect.Backend) (*MergeReport, error) {
	if _, ok := dialect.RulesFor(backend); !ok {
		return nil, fmt.Errorf("schema: merge: unsupported backend %q", backend)
	}
	// Defs sharing an identity are merged in order by the same goroutine.
	groups := make(map[string][]TableDef)
	var keys []string
	for _, def := range fresh {
		key := def.Ident.String()
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], def)
	}

	results := make([]mergeResult, len(keys))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, key := range keys {
		prev := f.Tables[key]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := mergeResult{key: key, added: prev == nil, skip: prev != nil && prev.ManualUpdate}
			t := prev
			for _, def := range groups[key] {
				next, err := Merge(t, def, backend)
				if err != nil {
					return fmt.Errorf("schema: merge %s: %w", key, err)
				}
				t = next
			}
			res.table = t
			res.same = prev != nil && reflect.DeepEqual(prev, t)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &MergeReport{Backend: backend}
	for _, res := range results {
		f.Tables[res.key] = res.table
		switch {
		case res.skip:
			report.Skipped = append(report.Skipped, res.key)
		case res.added:
			report.Added = append(report.Added, res.key)
		case res.same:
			report.Unchanged = append(report.Unchanged, res.key)
		default:
			report.Updated = append(report.Updated, res.key)
		}
	}
	for key := range f.Tables {
		if _, ok := groups[key]; !ok {
			report.Missing = append(report.Missing, key)
		}
	}
	for _, s := range [][]string{report.Added, report.Updated, report.Unchanged, report.Skipped, report.Missing} {
		slices.Sort(s)
	}
	return report, nil
}
