package db

import (
	"errors"
	"strconv"
	"strings"
)

// Dialect is the SQL flavor of a storage engine.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

var (
	// ErrUniqueViolation marks a write that collided with an existing row
	// on a uniqueness constraint.
	ErrUniqueViolation = errors.New("unique constraint violation")

	// ErrForeignKeyViolation marks a write that referenced a missing
	// parent row.
	ErrForeignKeyViolation = errors.New("foreign key constraint violation")
)

// Placeholder returns the bind parameter for the n-th argument, counting
// from 1.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Quote returns an identifier quoted for the dialect. Both supported
// engines accept ANSI double quotes.
func (d Dialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// IsUniqueViolation reports whether err comes from a uniqueness failure.
func IsUniqueViolation(err error) bool {
	return errors.Is(err, ErrUniqueViolation)
}

// IsForeignKeyViolation reports whether err comes from a referential
// integrity failure.
func IsForeignKeyViolation(err error) bool {
	return errors.Is(err, ErrForeignKeyViolation)
}
