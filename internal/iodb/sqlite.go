package iodb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"github.com/Subaru-PFS/qadb/pkg/config"
	"github.com/Subaru-PFS/qadb/pkg/db"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

const sqliteMemory = ":memory:"

// sqliteOperator implements db.Operator on a single SQLite
// connection.
type sqliteOperator struct {
	db   *sql.DB
	path string
}

// NewSQLiteOperator creates a new SQLite operator
// (without connecting).
func NewSQLiteOperator() db.Operator {
	return &sqliteOperator{}
}

// Connect opens the database file, creating it and its directory when
// needed. The pool is capped at one connection: an in-memory database
// lives only as long as its connection, and foreign key enforcement is
// a per-connection setting.
func (s *sqliteOperator) Connect(
	ctx context.Context,
	cfg *config.DatabaseConfig,
) error {
	path := cfg.Path
	if path == "" {
		path = sqliteMemory
	}

	if path != sqliteMemory {
		dir := filepath.Dir(path)
		err := os.MkdirAll(dir, 0o755)
		if err != nil && !errors.Is(err, os.ErrExist) {
			return SQLiteOpenError(path, err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return SQLiteOpenError(path, err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := sqlDB.ExecContext(ctx, p); err != nil {
			sqlDB.Close()
			return SQLiteOpenError(path, err)
		}
	}

	s.db = sqlDB
	s.path = path
	return nil
}

// Close releases the connection.
func (s *sqliteOperator) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Dialect returns db.SQLite.
func (s *sqliteOperator) Dialect() db.Dialect {
	return db.SQLite
}

// Exec runs a statement and returns the number of affected rows.
func (s *sqliteOperator) Exec(
	ctx context.Context,
	query string,
	args ...any,
) (int64, error) {
	if s.db == nil {
		return 0, NotConnectedError()
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Query runs a statement and reads all rows into memory.
func (s *sqliteOperator) Query(
	ctx context.Context,
	query string,
	args ...any,
) (*db.Result, error) {
	if s.db == nil {
		return nil, NotConnectedError()
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	res := &db.Result{Columns: cols}

	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, classify(err)
		}
		for i := range vals {
			vals[i] = normalize(vals[i])
		}
		res.Rows = append(res.Rows, vals)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return res, nil
}

// TableExists checks if a table exists in the database.
func (s *sqliteOperator) TableExists(
	ctx context.Context,
	tableName string,
) (bool, error) {
	if s.db == nil {
		return false, NotConnectedError()
	}

	query := `
		SELECT count(*) FROM sqlite_master
		WHERE type = 'table' AND name = ?
	`

	var n int
	err := s.db.QueryRowContext(ctx, query, tableName).Scan(&n)
	if err != nil {
		return false, TableExistsCheckError(tableName, err)
	}
	return n > 0, nil
}

// HasTables checks if the database has any user tables.
func (s *sqliteOperator) HasTables(ctx context.Context) (bool, error) {
	if s.db == nil {
		return false, NotConnectedError()
	}

	query := `
		SELECT count(*) FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
	`

	var n int
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return false, TableCheckError(err)
	}
	return n > 0, nil
}

// DropAllTables drops all user tables. Foreign keys are switched off
// for the duration, SQLite has no DROP ... CASCADE.
func (s *sqliteOperator) DropAllTables(ctx context.Context) error {
	if s.db == nil {
		return NotConnectedError()
	}

	query := `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return QueryTablesError(err)
	}

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			rows.Close()
			return ScanTableError(err)
		}
		tables = append(tables, tableName)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return ScanTableError(err)
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return QueryTablesError(err)
	}
	defer func() {
		_, _ = s.db.ExecContext(ctx, "PRAGMA foreign_keys = ON")
	}()

	for _, table := range tables {
		dropSQL := "DROP TABLE IF EXISTS " + db.SQLite.Quote(table)
		if _, err := s.db.ExecContext(ctx, dropSQL); err != nil {
			return DropTableError(table, err)
		}
	}

	return nil
}
