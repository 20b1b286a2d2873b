package schema

import (
	"fmt"
	"go/token"
	"slices"
	"sort"
	"strings"
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking indicates if this is a breaking change.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasBreakingChanges returns true if there are any breaking changes.
func (r *ValidationResult) HasBreakingChanges() bool {
	for _, e := range r.Errors {
		if e.Breaking {
			return true
		}
	}
	for _, w := range r.Warnings {
		if w.Breaking {
			return true
		}
	}
	return false
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			if w.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateOption configures schema validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	allowDropColumn    bool
	allowDropTable     bool
	allowNullToNotNull bool
}

// AllowDropColumn allows dropping columns without error.
func AllowDropColumn() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropColumn = true
	}
}

// AllowDropTable allows dropping tables without error.
func AllowDropTable() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropTable = true
	}
}

// AllowNullToNotNull allows changing nullable columns to not null.
func AllowNullToNotNull() ValidateOption {
	return func(c *validateConfig) {
		c.allowNullToNotNull = true
	}
}

// ValidateDiff validates the difference between two versions of a manifest,
// typically the one on disk and the one a merge produced. Changes that break
// code compiled against the current generated handles are reported as
// breaking errors, changes that only alter behavior as warnings.
//
// Example:
//
//	result := schema.ValidateDiff(before.Sorted(), after.Sorted())
//	if result.HasBreakingChanges() {
//	    log.Fatal("Breaking changes detected:", result)
//	}
func ValidateDiff(current, desired []*Table, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	result := &ValidationResult{}
	currentMap := make(map[string]*Table, len(current))
	for _, t := range current {
		currentMap[t.Ident().String()] = t
	}
	desiredMap := make(map[string]*Table, len(desired))
	for _, t := range desired {
		desiredMap[t.Ident().String()] = t
	}

	// Check for dropped tables
	for name := range currentMap {
		if _, ok := desiredMap[name]; !ok {
			err := &ValidationError{
				Table:    name,
				Message:  "table will be dropped",
				Breaking: true,
			}
			if cfg.allowDropTable {
				result.Warnings = append(result.Warnings, err)
			} else {
				result.Errors = append(result.Errors, err)
			}
		}
	}

	// Check for changes in existing tables
	for name, desired := range desiredMap {
		current, exists := currentMap[name]
		if !exists {
			continue
		}
		validateTableDiff(current, desired, cfg, result)
	}
	sortIssues(result)
	return result
}

func validateTableDiff(current, desired *Table, cfg *validateConfig, result *ValidationResult) {
	table := current.Ident().String()
	desiredCols := make(map[string]*Column, len(desired.Columns))
	for _, c := range desired.Columns {
		desiredCols[c.DBName] = c
	}

	for _, currentCol := range current.Columns {
		desiredCol, exists := desiredCols[currentCol.DBName]
		if !exists {
			err := &ValidationError{
				Table:    table,
				Column:   currentCol.DBName,
				Message:  "column will be dropped",
				Breaking: true,
			}
			if cfg.allowDropColumn {
				result.Warnings = append(result.Warnings, err)
			} else {
				result.Errors = append(result.Errors, err)
			}
			continue
		}

		if currentCol.Type != desiredCol.Type {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:    table,
				Column:   desiredCol.DBName,
				Message:  fmt.Sprintf("column type changing from %s to %s", currentCol.Type, desiredCol.Type),
				Breaking: true,
			})
		}

		// Nullable to NOT NULL turns an optional handle into a plain one.
		if currentCol.Nullable && !desiredCol.Nullable {
			err := &ValidationError{
				Table:    table,
				Column:   desiredCol.DBName,
				Message:  "column changing from NULL to NOT NULL",
				Breaking: true,
			}
			if cfg.allowNullToNotNull {
				result.Warnings = append(result.Warnings, err)
			} else {
				result.Errors = append(result.Errors, err)
			}
		}
		if !currentCol.Nullable && desiredCol.Nullable {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:    table,
				Column:   desiredCol.DBName,
				Message:  "column changing from NOT NULL to NULL",
				Breaking: true,
			})
		}

		if currentCol.Name != desiredCol.Name {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:    table,
				Column:   desiredCol.DBName,
				Message:  fmt.Sprintf("field renamed from %s to %s", currentCol.Name, desiredCol.Name),
				Breaking: true,
			})
		}
	}

	// Check for dropped relations
	for _, kind := range []struct {
		name          string
		current, next []*Relation
	}{
		{"belongs_to", current.BelongsTo, desired.BelongsTo},
		{"has_many", current.HasMany, desired.HasMany},
	} {
		for _, r := range kind.current {
			if !slices.ContainsFunc(kind.next, func(n *Relation) bool {
				return n.Ident() == r.Ident() && n.ForeignKey == r.ForeignKey
			}) {
				result.Warnings = append(result.Warnings, &ValidationError{
					Table:    table,
					Message:  fmt.Sprintf("%s relation to %s via %s will be dropped", kind.name, r.Ident(), r.ForeignKey),
					Breaking: true,
				})
			}
		}
	}
}

// ValidateTable validates a single table definition.
func ValidateTable(t *Table) *ValidationResult {
	result := &ValidationResult{}
	table := t.Ident().String()

	if t.Name == "" {
		result.Errors = append(result.Errors, &ValidationError{
			Table:   table,
			Message: "table has no name",
		})
	}
	if t.Type != KindTable && t.Type != KindView {
		result.Errors = append(result.Errors, &ValidationError{
			Table:   table,
			Message: fmt.Sprintf("unknown table type %q", t.Type),
		})
	}
	if t.Type == KindTable && t.PrimaryKey() == nil {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:   table,
			Message: "table has no primary key",
		})
	}

	// Check for duplicate column and field names
	colNames := make(map[string]bool)
	fieldNames := make(map[string]bool)
	for _, c := range t.Columns {
		if colNames[c.DBName] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   table,
				Column:  c.DBName,
				Message: "duplicate column name",
			})
		}
		colNames[c.DBName] = true
		if !token.IsIdentifier(c.Name) || !token.IsExported(c.Name) {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   table,
				Column:  c.DBName,
				Message: fmt.Sprintf("field name %q is not an exported Go identifier", c.Name),
			})
		}
		if fieldNames[c.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   table,
				Column:  c.DBName,
				Message: fmt.Sprintf("duplicate field name %q", c.Name),
			})
		}
		fieldNames[c.Name] = true
		if c.Type == "" {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   table,
				Column:  c.DBName,
				Message: "column has no type",
			})
		}
	}

	// A belongs_to key lives on this table.
	for _, r := range t.BelongsTo {
		if !colNames[r.ForeignKey] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   table,
				Message: fmt.Sprintf("belongs_to %s references non-existent column %q", r.Ident(), r.ForeignKey),
			})
		}
	}

	return result
}

// ValidateSchema validates all tables in a manifest.
func ValidateSchema(tables []*Table) *ValidationResult {
	result := &ValidationResult{}

	byIdent := make(map[string]*Table)
	for _, t := range tables {
		ident := t.Ident().String()
		if byIdent[ident] != nil {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   ident,
				Message: "duplicate table name",
			})
		}
		byIdent[ident] = t

		tableResult := ValidateTable(t)
		result.Errors = append(result.Errors, tableResult.Errors...)
		result.Warnings = append(result.Warnings, tableResult.Warnings...)
	}

	// Validate relation targets
	for _, t := range tables {
		for _, r := range t.BelongsTo {
			target := byIdent[r.Ident().String()]
			if target == nil {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Ident().String(),
					Message: fmt.Sprintf("belongs_to references non-existent table %q", r.Ident()),
				})
			} else if target.PrimaryKey() == nil {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Ident().String(),
					Message: fmt.Sprintf("belongs_to references table %q without primary key", r.Ident()),
				})
			}
		}
		for _, r := range t.HasMany {
			target := byIdent[r.Ident().String()]
			if target == nil {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Ident().String(),
					Message: fmt.Sprintf("has_many references non-existent table %q", r.Ident()),
				})
				continue
			}
			if _, ok := target.Column(r.ForeignKey); !ok {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Ident().String(),
					Message: fmt.Sprintf("has_many references non-existent column %s.%s", r.Ident(), r.ForeignKey),
				})
			}
		}
	}
	sortIssues(result)
	return result
}

func sortIssues(r *ValidationResult) {
	for _, issues := range [][]*ValidationError{r.Errors, r.Warnings} {
		sort.SliceStable(issues, func(i, j int) bool {
			return issues[i].Error() < issues[j].Error()
		})
	}
}
