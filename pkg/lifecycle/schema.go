// Package lifecycle defines contracts of the collaborators that set a
// QA database up and keep its root entities: the schema manager and the
// roots repository.
package lifecycle

import (
	"context"
)

// SchemaManager defines the interface for database schema management.
// It creates the tables of a schema registry with DDL of the connected
// dialect and records the schema version.
type SchemaManager interface {
	// CreateAll creates every table of the registry, parents first, and
	// records the schema version. It fails if a table already exists.
	CreateAll(ctx context.Context) error

	// DropAll drops every table of the registry, children first.
	// Tables that do not exist are skipped.
	DropAll(ctx context.Context) error

	// Ensure creates only the tables that do not exist yet and records
	// the schema version if it is missing. Existing tables are not
	// altered, so it is safe to run multiple times.
	Ensure(ctx context.Context) error

	// Version returns the schema version recorded in the database, or an
	// empty string when none is recorded.
	Version(ctx context.Context) (string, error)
}
