package ioschema

import (
	"fmt"

	"github.com/Subaru-PFS/qadb/pkg/errcode"
	"github.com/gnames/gn"
)

// CreateSchemaError creates an error for a table that cannot be
// created.
func CreateSchemaError(table string, err error) error {
	msg := `Cannot create table <em>%s</em>

<em>Possible causes:</em>
  - The table already exists
  - Insufficient database permissions

<em>How to fix:</em>
  1. Recreate the database with <em>qadb create --force</em>
  2. Add only missing tables with <em>qadb migrate</em>
  3. Check database user has CREATE permissions`
	vars := []any{table}
	return &gn.Error{
		Code: errcode.SchemaCreateError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to create table %s: %w", table, err),
	}
}

// DropSchemaError creates an error for a table that cannot be
// dropped.
func DropSchemaError(table string, err error) error {
	msg := `Cannot drop table <em>%s</em>

<em>How to fix:</em>
  Check database user owns the table`
	vars := []any{table}
	return &gn.Error{
		Code: errcode.SchemaDropError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to drop table %s: %w", table, err),
	}
}

// VersionRecordError creates an error for a failed write of the schema
// version row.
func VersionRecordError(version string, err error) error {
	msg := "Cannot record schema version <em>%s</em>"
	vars := []any{version}
	return &gn.Error{
		Code: errcode.SchemaVersionError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to record schema version %s: %w", version, err),
	}
}
