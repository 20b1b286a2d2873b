package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/syssam/relq"
	"github.com/syssam/relq/dialect"
)

// Driver is a dialect.Driver implementation for database/sql connections.
// It executes statements rendered by this package; it never rewrites them.
type Driver struct {
	Conn
	backend dialect.Backend
}

// NewDriver creates a new Driver with the given Conn and backend.
func NewDriver(backend dialect.Backend, c Conn) *Driver {
	return &Driver{backend: backend, Conn: c}
}

// Open opens a database/sql connection for the backend. The database/sql
// driver of the backend must be registered by the caller (blank import).
func Open(backend dialect.Backend, source string) (*Driver, error) {
	if _, ok := dialect.RulesFor(backend); !ok {
		return nil, relq.UnsupportedDialectError(string(backend))
	}
	db, err := sql.Open(backend.DriverName(), source)
	if err != nil {
		return nil, err
	}
	return OpenDB(backend, db), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(backend dialect.Backend, db *sql.DB) *Driver {
	return NewDriver(backend, Conn{db})
}

// DB returns the underlying *sql.DB instance.
func (d Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Backend implements the dialect.Driver interface.
func (d Driver) Backend() dialect.Backend {
	return d.backend
}

// Tx starts and returns a transaction.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with options.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (dialect.Tx, error) {
	tx, err := d.DB().BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: begin: %w", err)
	}
	return &Tx{
		Conn: Conn{tx},
		Tx:   tx,
	}, nil
}

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.DB().Close() }

// Tx implements dialect.Tx interface.
type Tx struct {
	Conn
	driver.Tx
}

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.ExecQuerier given ExecQuerier.
type Conn struct {
	ExecQuerier
}

// Exec implements the dialect.Exec method.
func (c Conn) Exec(ctx context.Context, query string, args, v any) error {
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	switch v := v.(type) {
	case nil:
		if _, err := c.ExecContext(ctx, query, argv...); err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
	case *sql.Result:
		res, err := c.ExecContext(ctx, query, argv...)
		if err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
		*v = res
	default:
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Result", v)
	}
	return nil
}

// Query implements the dialect.Query method.
func (c Conn) Query(ctx context.Context, query string, args, v any) error {
	vr, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Rows", v)
	}
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	rows, err := c.QueryContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	*vr = Rows{rows}
	return nil
}

// Fetch renders q for the backend and runs it on ex, loading the result into rows.
// Execution errors are returned wrapped but otherwise unmodified.
func Fetch(ctx context.Context, ex dialect.ExecQuerier, backend dialect.Backend, q Querier, rows *Rows) error {
	query, args, err := Render(q, backend)
	if err != nil {
		return err
	}
	return ex.Query(ctx, query, args, rows)
}

// FetchWith renders q for the driver's backend and runs it.
func FetchWith(ctx context.Context, drv dialect.Driver, q Querier, rows *Rows) error {
	return Fetch(ctx, drv, drv.Backend(), q, rows)
}

var _ dialect.Driver = (*Driver)(nil)

type (
	// Rows wraps the sql.Rows to avoid locks copy.
	Rows struct{ ColumnScanner }
	// Result is an alias to sql.Result.
	Result = sql.Result
	// TxOptions holds the transaction options to be used in DB.BeginTx.
	TxOptions = sql.TxOptions
)

// ColumnScanner is the interface that wraps the standard
// sql.Rows methods used for scanning database rows.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}

// Close closes the rows, if any were returned.
func (r *Rows) Close() error {
	if r.ColumnScanner == nil {
		return errors.New("dialect/sql: rows were not loaded")
	}
	return r.ColumnScanner.Close()
}
