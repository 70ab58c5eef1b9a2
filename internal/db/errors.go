package db

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoRows is returned when a query returns no rows
var ErrNoRows = errors.New("no rows in result set")

const (
	pgForeignKeyViolation = "23503"

	sqliteConstraint           = 19
	sqliteConstraintForeignKey = 787
)

// IsNoRows returns true if the error indicates no rows were found.
// Works with pgx, database/sql, and the package's own ErrNoRows.
func IsNoRows(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrNoRows) ||
		errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, pgx.ErrNoRows)
}

// IsForeignKeyViolation reports whether err is a rejected reference, such
// as feedback for a conversion that no longer exists. SQLite may report
// only the primary constraint code depending on connection flags.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		return coded.Code() == sqliteConstraintForeignKey || coded.Code() == sqliteConstraint
	}
	return false
}
