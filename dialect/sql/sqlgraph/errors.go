// Package sqlgraph classifies the errors returned by the execution layer when
// running rendered statements. The errors are inspected, never rewritten.
package sqlgraph

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// SQL Server error numbers, matched by message since no driver is linked.
const (
	mssqlUniqueIndex      = "Error 2601"
	mssqlUniqueConstraint = "Error 2627"
	mssqlReference        = "Error 547"
)

// sqlStateError is implemented by drivers exposing SQLSTATE codes (pgx).
type sqlStateError interface {
	SQLState() string
}

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := pgCode(err); ok {
		return code == pgUniqueViolation
	}
	if num, ok := mysqlNumber(err); ok {
		return num == mysqlDuplicateEntry
	}
	if code, ok := sqliteCode(err); ok && code != sqlite3.SQLITE_CONSTRAINT {
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return containsAny(err.Error(),
		"violates unique constraint", // Postgres (string fallback)
		"UNIQUE constraint failed",   // SQLite
		mssqlUniqueIndex,
		mssqlUniqueConstraint,
	)
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := pgCode(err); ok {
		return code == pgForeignKeyViolation
	}
	if num, ok := mysqlNumber(err); ok {
		return num == mysqlForeignKeyParent || num == mysqlForeignKeyChild
	}
	if code, ok := sqliteCode(err); ok && code != sqlite3.SQLITE_CONSTRAINT {
		return code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return containsAny(err.Error(),
		"violates foreign key constraint", // Postgres
		"FOREIGN KEY constraint failed",   // SQLite
		mssqlReference,
	)
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
// e.g. a value does not satisfy a check condition.
func IsCheckConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := pgCode(err); ok {
		return code == pgCheckViolation
	}
	if num, ok := mysqlNumber(err); ok {
		return num == mysqlCheckConstraintViolate
	}
	if code, ok := sqliteCode(err); ok && code != sqlite3.SQLITE_CONSTRAINT {
		return code == sqlite3.SQLITE_CONSTRAINT_CHECK
	}
	return containsAny(err.Error(),
		"violates check constraint", // Postgres
		"CHECK constraint failed",   // SQLite
	)
}

func pgCode(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), true
	}
	if e, ok := asError[sqlStateError](err); ok {
		return e.SQLState(), true
	}
	return "", false
}

func mysqlNumber(err error) (uint16, bool) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number, true
	}
	return 0, false
}

func sqliteCode(err error) (int, bool) {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code(), true
	}
	return 0, false
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
