package ioroots

import (
	"fmt"

	"github.com/Subaru-PFS/qadb/pkg/db"
	"github.com/Subaru-PFS/qadb/pkg/errcode"
	"github.com/gnames/gn"
)

// UnsupportedError is returned when root entities are managed over a
// database that has no GORM connection.
func UnsupportedError(d db.Dialect) error {
	msg := `Registering visits and runs needs PostgreSQL, not <em>%s</em>

<em>How to fix:</em>
  Ingest rows into <em>pfs_visit</em>, <em>calibs</em> or the
  processing tables with <em>qadb ingest</em> instead`
	vars := []any{d}
	return &gn.Error{
		Code: errcode.RootsUnsupportedError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("roots are not supported for %s", d),
	}
}

// GORMConnectionError is returned when GORM cannot wrap the pool.
func GORMConnectionError(err error) error {
	msg := "Cannot open GORM session"
	return &gn.Error{
		Code: errcode.SchemaGORMConnectionError,
		Msg:  msg,
		Err:  fmt.Errorf("failed to open GORM: %w", err),
	}
}

// WriteError is returned when a root entity cannot be saved.
func WriteError(table string, key any, err error) error {
	msg := "Cannot save <em>%v</em> into <em>%s</em>"
	vars := []any{key, table}
	return &gn.Error{
		Code: errcode.RootsWriteError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to save %v into %s: %w", key, table, err),
	}
}

// ReadError is returned when root entities cannot be listed.
func ReadError(table string, err error) error {
	msg := "Cannot read <em>%s</em>"
	vars := []any{table}
	return &gn.Error{
		Code: errcode.RootsReadError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to read %s: %w", table, err),
	}
}
