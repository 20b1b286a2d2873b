// Package relq holds the errors and helpers shared by the relq packages.
//
// The query builder lives in dialect/sql, the table manifest in
// dialect/sql/schema and the code generator in compiler/gen. The relq
// command ties them together:
//
//	relq update -b postgres --dsn "$DATABASE_URL"   # refresh relq.yaml
//	relq generate -o internal/models               # write schema handles
//	relq watch -o internal/models                  # regenerate on edit
//
// # Errors
//
// Configuration mistakes are reported as *ConfigError, matching
// ErrInvalidConfig, or ErrUnsupportedDialect for an unknown backend. A merge
// of two different tables is reported as *MergeError, matching
// ErrInvalidMerge.
package relq
