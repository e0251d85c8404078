package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Subaru-PFS/qadb/pkg/errcode"
	"github.com/gnames/gn"
)

var errNoVersion = errors.New("no schema version recorded")

// DuplicateTableError is returned when two different descriptors
// share a table name.
func DuplicateTableError(table string) error {
	msg := `Table <em>%s</em> is defined twice with different columns or keys

<em>How to fix:</em>
  Keep exactly one definition of the table in the registry`
	vars := []any{table}
	return &gn.Error{
		Code: errcode.SchemaDuplicateTableError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("conflicting definitions of table %s", table),
	}
}

// DefinitionError is returned when a descriptor is inconsistent.
func DefinitionError(table, problem string) error {
	msg := "Table <em>%s</em> is misdefined: %s"
	vars := []any{table, problem}
	return &gn.Error{
		Code: errcode.SchemaDefinitionError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("table %s: %s", table, problem),
	}
}

// MissingColumnError is returned when a key refers to an undeclared column.
func MissingColumnError(table, column, role string) error {
	problem := fmt.Sprintf("%s column '%s' is not declared", role, column)
	return DefinitionError(table, problem)
}

// MissingParentError is returned when a foreign key targets a table
// absent from the registry.
func MissingParentError(table, parent string) error {
	problem := fmt.Sprintf("references unknown table '%s'", parent)
	return DefinitionError(table, problem)
}

// BadIdentifierError is returned for names that are not lower-case
// SQL identifiers.
func BadIdentifierError(table, ident string) error {
	problem := fmt.Sprintf("'%s' is not a valid identifier", ident)
	return DefinitionError(table, problem)
}

// CycleError is returned when foreign keys form a loop.
func CycleError(tables []string) error {
	msg := "Foreign keys form a cycle among tables: <em>%s</em>"
	vars := []any{strings.Join(tables, ", ")}
	return &gn.Error{
		Code: errcode.SchemaDefinitionError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("foreign key cycle among %v", tables),
	}
}

// VersionReadError is returned when the schema_versions table cannot be
// read, usually because the database was not created by qadb.
func VersionReadError(err error) error {
	msg := `Cannot read the schema version of the database

<em>How to fix:</em>
  Create the schema with <em>qadb create</em>`
	return &gn.Error{
		Code: errcode.SchemaVersionError,
		Msg:  msg,
		Err:  fmt.Errorf("cannot read %s: %w", SchemaVersionsTable, err),
	}
}

// NotVersionError is returned when the recorded version is not a
// semantic version.
func NotVersionError(version string) error {
	msg := "Recorded schema version <em>%s</em> is not a version string"
	vars := []any{version}
	return &gn.Error{
		Code: errcode.SchemaVersionError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("bad schema version %q", version),
	}
}

// VersionTooOldError is returned when the database was created with an
// older schema than the one the program writes.
func VersionTooOldError(recorded, want string) error {
	msg := `Database schema <em>%s</em> is older than <em>%s</em>

<em>How to fix:</em>
  Recreate the database with <em>qadb create --force</em>
  or add missing tables with <em>qadb migrate</em>`
	vars := []any{recorded, want}
	return &gn.Error{
		Code: errcode.SchemaVersionMismatchError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("schema version %s is older than %s", recorded, want),
	}
}
