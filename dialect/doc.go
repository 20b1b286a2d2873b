// Package dialect names the database backends relq renders for and the
// driver interfaces rendered statements are executed through.
//
// # Backends
//
// Each backend is identified by a constant string:
//
//	dialect.MySQL    = "mysql"
//	dialect.Postgres = "postgres"
//	dialect.SQLite   = "sqlite"
//	dialect.MSSQL    = "mssql"
//
// RulesFor returns the rendering rules of a backend: how placeholders are
// numbered, how identifiers are quoted and how a row window is expressed.
//
//	Backend   Placeholder  Quote     Paging
//	mysql     ?            `x`       LIMIT n OFFSET m
//	postgres  $1, $2       "x"       LIMIT n OFFSET m
//	sqlite    ?            "x"       LIMIT n OFFSET m
//	mssql     @p1, @p2     [x]       TOP n, OFFSET m ROWS FETCH NEXT n ROWS ONLY
//
// An offset without a limit still needs a LIMIT on MySQL and SQLite; the
// rules carry the literal that means "no limit" there.
//
// # Driver Interface
//
// Rendered statements run through the Driver interface:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Backend() Backend
//	}
//
// dialect/sql implements it on top of database/sql.
package dialect
