package ingest

import (
	"fmt"

	"github.com/Subaru-PFS/qadb/pkg/errcode"
	"github.com/gnames/gn"
)

// EmptyTableNameError is returned when Upsert gets no table name.
func EmptyTableNameError() error {
	msg := "Table name is required"
	return &gn.Error{
		Code: errcode.IngestEmptyTableNameError,
		Msg:  msg,
		Err:  fmt.Errorf("empty table name"),
	}
}

// UnknownTableError is returned for a table absent from the registry.
func UnknownTableError(table string) error {
	msg := `Table <em>%s</em> is not a QA table

<em>How to fix:</em>
  List known tables with <em>qadb schema --names</em>`
	vars := []any{table}
	return &gn.Error{
		Code: errcode.IngestUnknownTableError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("unknown table %q", table),
	}
}

// UnknownColumnError is returned for a row field that is not a column
// of the table.
func UnknownColumnError(table, column string) error {
	msg := "Table <em>%s</em> has no column <em>%s</em>"
	vars := []any{table, column}
	return &gn.Error{
		Code: errcode.IngestUnknownColumnError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("unknown column %s.%s", table, column),
	}
}

// ValueError is returned when a value cannot be stored in its column.
func ValueError(table, column string, value any, err error) error {
	msg := "Value <em>%v</em> does not fit column <em>%s.%s</em>"
	vars := []any{value, table, column}
	return &gn.Error{
		Code: errcode.IngestValueError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("bad value %v for %s.%s: %w",
			value, table, column, err),
	}
}

// ClosedError is returned when a closed engine is used.
func ClosedError() error {
	msg := "Ingestion engine is closed"
	return &gn.Error{
		Code: errcode.IngestClosedError,
		Msg:  msg,
		Err:  fmt.Errorf("engine is closed"),
	}
}

// RowError describes a failed batch for the operator. Upsert itself
// returns database errors unmodified. Callers that report to people
// wrap them with RowError, naming the row that stopped the batch.
func RowError(table string, row int, stats Stats, err error) error {
	msg := `Ingestion into <em>%s</em> stopped at row <em>%d</em>
Rows before it are stored: %d inserted, %d updated, %d unchanged, %d dropped`
	vars := []any{
		table, row + 1,
		stats.Inserted, stats.Updated, stats.Unchanged, stats.Dropped,
	}
	return &gn.Error{
		Code: errcode.IngestRowError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("table %s, row %d: %w", table, row+1, err),
	}
}
