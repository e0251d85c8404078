package ioschema

import (
	"fmt"
	"time"

	"github.com/Subaru-PFS/qadb/pkg/db"
	"github.com/Subaru-PFS/qadb/pkg/schema"
)

// tableStatements returns the statements that create a table together
// with its indexes and comments.
func tableStatements(t schema.Table, d db.Dialect) []string {
	res := []string{t.CreateDDL(d)}
	res = append(res, t.IndexDDL()...)
	res = append(res, t.CommentDDL(d)...)
	return res
}

// versionInsert formats the statement that records a schema version.
func versionInsert(d db.Dialect, version string, at time.Time) (string, []any) {
	q := fmt.Sprintf(
		"INSERT INTO %s (version, description, applied_at) VALUES (%s, %s, %s)",
		schema.SchemaVersionsTable,
		d.Placeholder(1), d.Placeholder(2), d.Placeholder(3),
	)
	return q, []any{version, "canonical QA schema", at}
}
