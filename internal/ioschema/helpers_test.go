package ioschema

import (
	"strings"
	"testing"
	"time"

	"github.com/Subaru-PFS/qadb/pkg/db"
	"github.com/Subaru-PFS/qadb/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableStatements(t *testing.T) {
	reg, err := schema.Canonical()
	require.NoError(t, err)
	tbl, ok := reg.Table("detectormap_qa")
	require.True(t, ok)

	stmts := tableStatements(tbl, db.SQLite)
	require.NotEmpty(t, stmts)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE detectormap_qa"))
	for _, s := range stmts {
		assert.False(t, strings.HasPrefix(s, "COMMENT"),
			"SQLite has no comments")
	}

	stmts = tableStatements(tbl, db.Postgres)
	var comments int
	for _, s := range stmts {
		if strings.HasPrefix(s, "COMMENT ON") {
			comments++
		}
	}
	assert.Positive(t, comments)
}

func TestVersionInsert(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	q, args := versionInsert(db.Postgres, "v0.1.0", at)
	assert.Equal(t,
		"INSERT INTO schema_versions (version, description, applied_at) "+
			"VALUES ($1, $2, $3)", q)
	require.Len(t, args, 3)
	assert.Equal(t, "v0.1.0", args[0])
	assert.Equal(t, at, args[2])

	q, _ = versionInsert(db.SQLite, "v0.1.0", at)
	assert.Contains(t, q, "VALUES (?, ?, ?)")
}
