package dialect

import (
	"context"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Backend identifies a database engine a query can be rendered for.
type Backend string

// Supported backends.
const (
	MySQL    Backend = "mysql"
	Postgres Backend = "postgres"
	SQLite   Backend = "sqlite"
	MSSQL    Backend = "mssql"
)

// Backends lists every backend with a known rendering rule set.
var Backends = []Backend{MySQL, Postgres, SQLite, MSSQL}

// String implements fmt.Stringer.
func (b Backend) String() string { return string(b) }

// DriverName returns the database/sql driver name registered for the backend.
func (b Backend) DriverName() string {
	switch b {
	case SQLite:
		return "sqlite"
	case MSSQL:
		return "sqlserver"
	default:
		return string(b)
	}
}

// ParseBackend resolves a backend from its name or a driver name. Driver names
// wrapped by telemetry drivers ("postgres-otel") resolve by prefix.
func ParseBackend(name string) (Backend, bool) {
	name = strings.ToLower(name)
	switch {
	case strings.HasPrefix(name, "sqlserver"):
		return MSSQL, true
	case strings.HasPrefix(name, "sqlite"):
		return SQLite, true
	case name == "pgx", strings.HasPrefix(name, "postgres"):
		return Postgres, true
	}
	for _, b := range Backends {
		if strings.HasPrefix(name, string(b)) {
			return b, true
		}
	}
	return "", false
}

// PagingStyle describes how a backend expresses row limits and offsets.
type PagingStyle int

const (
	// PagingLimitOffset renders a trailing "LIMIT n OFFSET m".
	PagingLimitOffset PagingStyle = iota
	// PagingTopFetch renders "TOP (n)" in the select list, or
	// "OFFSET m ROWS FETCH NEXT n ROWS ONLY" after ORDER BY.
	PagingTopFetch
)

// Rules holds the per-backend rendering capabilities.
type Rules struct {
	// Placeholder returns the bind token for the i-th (1-based) parameter.
	Placeholder func(i int) string
	// Quote wraps an identifier in the backend quoting characters.
	Quote func(ident string) string
	// Paging is the paging clause form.
	Paging PagingStyle
	// NoLimit is the LIMIT value emitted when only an offset is set. Empty
	// means LIMIT may be omitted.
	NoLimit string
}

var rules = map[Backend]Rules{
	MySQL: {
		Placeholder: func(int) string { return "?" },
		Quote:       quoteWith('`', '`'),
		Paging:      PagingLimitOffset,
		NoLimit:     "18446744073709551615",
	},
	Postgres: {
		Placeholder: func(i int) string { return "$" + strconv.Itoa(i) },
		Quote:       pq.QuoteIdentifier,
		Paging:      PagingLimitOffset,
	},
	SQLite: {
		Placeholder: func(int) string { return "?" },
		Quote:       quoteWith('"', '"'),
		Paging:      PagingLimitOffset,
		NoLimit:     "-1",
	},
	MSSQL: {
		Placeholder: func(i int) string { return "@p" + strconv.Itoa(i) },
		Quote:       quoteWith('[', ']'),
		Paging:      PagingTopFetch,
	},
}

// RulesFor returns the rendering rules of the backend.
func RulesFor(b Backend) (Rules, bool) {
	r, ok := rules[b]
	return r, ok
}

// quoteWith returns a quoting function that doubles embedded closing characters.
func quoteWith(open, close byte) func(string) string {
	return func(s string) string {
		var b strings.Builder
		b.Grow(len(s) + 2)
		b.WriteByte(open)
		for i := 0; i < len(s); i++ {
			if s[i] == close {
				b.WriteByte(close)
			}
			b.WriteByte(s[i])
		}
		b.WriteByte(close)
		return b.String()
	}
}

// ExecQuerier wraps the two database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for executing
// rendered statements.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Backend returns the backend the driver talks to.
	Backend() Backend
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}
