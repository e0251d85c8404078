package iodb

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/Subaru-PFS/qadb/pkg/db"
	"github.com/Subaru-PFS/qadb/pkg/errcode"
	"github.com/gnames/gn"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
)

// PostgreSQL SQLSTATE codes of integrity violations.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// SQLite extended result codes of integrity violations.
const (
	sqliteConstraintForeignKey = 787
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// ConnectionError creates an error for failed connection
// attempts.
func ConnectionError(
	host string,
	port int,
	database, user string,
	err error,
) error {
	msg := `Cannot connect to database <em>%s</em>

<em>Possible causes:</em>
  - PostgreSQL is not running
  - Database does not exist
  - Wrong credentials (check ~/.pgpass)

<em>How to fix:</em>
  1. Check if PostgreSQL is running:
     <em>pg_isready -h %s -p %d</em>
  2. Verify the database exists:
     <em>psql -h %s -U %s -l</em>`
	vars := []any{database, host, port, host, user}
	return &gn.Error{
		Code: errcode.DBConnectionError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("failed to connect to %s:%d/%s: %w",
			host, port, database, err),
	}
}

// SQLiteOpenError creates an error for a SQLite file that cannot be
// opened.
func SQLiteOpenError(path string, err error) error {
	msg := "Cannot open SQLite database <em>%s</em>"
	vars := []any{path}
	return &gn.Error{
		Code: errcode.DBConnectionError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to open %s: %w", path, err),
	}
}

// UnsupportedDriverError creates an error for a storage engine
// that has no operator.
func UnsupportedDriverError(driver string) error {
	msg := `Database driver <em>%s</em> is not supported

<em>How to fix:</em>
  Use "postgres" or "sqlite" in database.driver,
  or a postgresql:// or sqlite:// URL in database.url`
	vars := []any{driver}
	return &gn.Error{
		Code: errcode.DBUnsupportedURLError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("unsupported database driver %q", driver),
	}
}

// NotConnectedError creates an error for operations
// attempted before Connect.
func NotConnectedError() error {
	msg := "Database operation attempted without connection"
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  msg,
		Err:  fmt.Errorf("from %s: not connected to database", fn.Name()),
	}
}

// TableCheckError creates an error for a failed check of
// database tables.
func TableCheckError(err error) error {
	msg := "Cannot check if database has tables"
	return &gn.Error{
		Code: errcode.DBTableCheckError,
		Msg:  msg,
		Err:  fmt.Errorf("failed to check tables: %w", err),
	}
}

// TableExistsCheckError creates an error for a failed
// existence check of a table.
func TableExistsCheckError(table string, err error) error {
	msg := "Cannot check if table <em>%s</em> exists"
	vars := []any{table}
	return &gn.Error{
		Code: errcode.DBTableExistsCheckError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to check table %s: %w", table, err),
	}
}

// QueryTablesError creates an error for a failed listing of
// tables.
func QueryTablesError(err error) error {
	msg := "Cannot get the list of database tables"
	return &gn.Error{
		Code: errcode.DBQueryTablesError,
		Msg:  msg,
		Err:  fmt.Errorf("failed to query tables: %w", err),
	}
}

// ScanTableError creates an error for a failed read of a
// table name.
func ScanTableError(err error) error {
	msg := "Cannot read a table name"
	return &gn.Error{
		Code: errcode.DBScanTableError,
		Msg:  msg,
		Err:  fmt.Errorf("failed to scan table name: %w", err),
	}
}

// DropTableError creates an error for a table that cannot be
// dropped.
func DropTableError(table string, err error) error {
	msg := "Cannot drop table <em>%s</em>"
	vars := []any{table}
	return &gn.Error{
		Code: errcode.DBDropTableError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to drop table %s: %w", table, err),
	}
}

// classify marks integrity violations with db sentinels. The driver
// error stays in the chain, so errors.As still finds it.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %w", db.ErrUniqueViolation, err)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %w", db.ErrForeignKeyViolation, err)
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
			return fmt.Errorf("%w: %w", db.ErrUniqueViolation, err)
		case sqliteConstraintForeignKey:
			return fmt.Errorf("%w: %w", db.ErrForeignKeyViolation, err)
		}
	}

	// SQLite reports the primary result code unless extended codes are
	// enabled, so the message is the reliable part.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %w", db.ErrUniqueViolation, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %w", db.ErrForeignKeyViolation, err)
	}
	return err
}
