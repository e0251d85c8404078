package db

import (
	"context"

	"github.com/Subaru-PFS/qadb/pkg/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Executor is the generic execute/query surface of a QA store.
// The ingestion engine and the schema manager work only through it,
// so they do not depend on a particular driver.
type Executor interface {
	// Dialect reports the SQL flavor the executor speaks.
	Dialect() Dialect

	// Exec runs a statement and returns the number of affected rows.
	// Driver errors are classified: uniqueness failures wrap
	// ErrUniqueViolation, referential failures wrap
	// ErrForeignKeyViolation.
	Exec(ctx context.Context, query string, args ...any) (int64, error)

	// Query runs a statement and materializes its full result.
	Query(ctx context.Context, query string, args ...any) (*Result, error)
}

// Operator defines the interface for basic database management operations.
// It adds connection lifecycle and whole-database housekeeping to the
// Executor.
type Operator interface {
	Executor

	// Connect opens a single logical connection to the database.
	Connect(context.Context, *config.DatabaseConfig) error

	// Close releases the connection. It is safe to call more than once.
	Close() error

	// TableExists checks if a table exists in the database.
	TableExists(ctx context.Context, tableName string) (bool, error)

	// HasTables checks if the database has any user tables.
	// Used to determine if schema creation should prompt for confirmation.
	HasTables(ctx context.Context) (bool, error)

	// DropAllTables drops all user tables.
	// Used during schema initialization when overwriting existing data.
	DropAllTables(ctx context.Context) error
}

// Pooler is implemented by PostgreSQL operators. It exposes the
// underlying pgxpool.Pool to components that need a richer client,
// like the GORM repository of root entities.
type Pooler interface {
	Pool() *pgxpool.Pool
}

// Factory opens a connected Operator. The caller owns the returned
// Operator and must Close it.
type Factory func(ctx context.Context) (Operator, error)
