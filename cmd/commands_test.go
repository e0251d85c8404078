package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Subaru-PFS/qadb/internal/iotesting"
	"github.com/Subaru-PFS/qadb/pkg/db"
	"github.com/Subaru-PFS/qadb/pkg/errcode"
	"github.com/gnames/gn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestInputs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run21.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
inputs:
  - table: seeing
    location: seeing_run21.csv
  - location: moon.csv
  - table: telescope
    location: tel.dat
    format: tsv
`), 0o644))

	res, err := ingestInputs(path, "1,telescope", "", []string{"sky.csv"})
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, filepath.Join(dir, "seeing_run21.csv"), res[0].Location)
	assert.Equal(t, "seeing", res[0].TableName())
	assert.Equal(t, "tsv", res[1].Format)
	assert.Equal(t, "sky", res[2].TableName())

	res, err = ingestInputs("", "", "moon", []string{"a.csv", "b.csv"})
	require.NoError(t, err)
	assert.Equal(t, "moon", res[1].TableName())

	_, err = ingestInputs(path, "sky", "", nil)
	var gnErr *gn.Error
	require.ErrorAs(t, err, &gnErr)
	assert.Equal(t, errcode.ManifestFilterError, gnErr.Code)

	_, err = ingestInputs("", "", "", nil)
	assert.Error(t, err)
}

func TestFormatResult(t *testing.T) {
	res := &db.Result{
		Columns: []string{"pfs_visit_id", "moon_phase", "issued_at"},
		Rows: [][]any{
			{int64(100), 0.5, time.Date(2025, 5, 20, 10, 30, 0, 0, time.UTC)},
			{int64(101), nil, nil},
		},
	}

	out, err := formatResult(res, "csv")
	require.NoError(t, err)
	assert.Equal(t,
		"pfs_visit_id,moon_phase,issued_at\n"+
			"100,0.5,2025-05-20T10:30:00Z\n"+
			"101,,\n", out)

	out, err = formatResult(res, "TSV")
	require.NoError(t, err)
	assert.Equal(t, "pfs_visit_id\tmoon_phase\tissued_at", strings.Split(out, "\n")[0])
	assert.Equal(t, "101\t\t", strings.Split(out, "\n")[2])

	out, err = formatResult(res, "json")
	require.NoError(t, err)
	var recs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, 100.0, recs[0]["pfs_visit_id"])
	assert.Nil(t, recs[1]["moon_phase"])

	_, err = formatResult(res, "xml")
	assert.Error(t, err)
}

func TestRunSchema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runSchema(&buf, "yaml", "", true))
	names := buf.String()
	assert.Contains(t, names, "pfs_visit")
	assert.Contains(t, names, "redshift_measurement")

	buf.Reset()
	require.NoError(t, runSchema(&buf, "yaml", "", false))
	assert.Contains(t, buf.String(), "seeing_mean")

	buf.Reset()
	require.NoError(t, runSchema(&buf, "ddl", "sqlite", false))
	ddl := buf.String()
	assert.Contains(t, ddl, "CREATE TABLE")
	assert.Less(t,
		strings.Index(ddl, "pfs_visit"), strings.Index(ddl, "seeing"),
		"parents are created first")

	assert.Error(t, runSchema(&buf, "ddl", "oracle", false))
	assert.Error(t, runSchema(&buf, "xml", "postgres", false))
}

func TestNullHelpers(t *testing.T) {
	assert.False(t, nullString("").Valid)
	assert.Equal(t, "run21", nullString("run21").String)

	nt, err := nullTime("")
	require.NoError(t, err)
	assert.False(t, nt.Valid)

	nt, err = nullTime("2025-05-20T10:30:00+09:00")
	require.NoError(t, err)
	assert.True(t, nt.Valid)
	assert.Equal(t, time.Date(2025, 5, 20, 1, 30, 0, 0, time.UTC), nt.Time)

	_, err = nullTime("yesterday")
	assert.Error(t, err)
}

func TestSubcommandFlags(t *testing.T) {
	serve := getServeCmd()
	assert.NotNil(t, serve.Flags().Lookup("address"))
	assert.NotNil(t, serve.Flags().Lookup("nats"))

	ingest := getIngestCmd()
	assert.Equal(t, "t", ingest.Flags().Lookup("table").Shorthand)

	query := getQueryCmd()
	assert.Equal(t, "csv", query.Flags().Lookup("format").DefValue)

	visit := getVisitCmd()
	var names []string
	for _, c := range visit.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"add", "list", "calib", "run"}, names)
}

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := getRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// TestSQLiteWorkflow creates a SQLite database, ingests files twice and
// queries the stored rows.
func TestSQLiteWorkflow(t *testing.T) {
	home := iotesting.SetupTempHome(t)
	dbArg := "--db=sqlite://" + filepath.Join(home, "qa.sqlite")

	_, err := run(t, dbArg, "create", "--force")
	require.NoError(t, err)

	visits := filepath.Join(home, "pfs_visit.csv")
	require.NoError(t, os.WriteFile(visits,
		[]byte("pfs_visit_id,pfs_visit_description\n100,flat\n101,\n"), 0o644))
	seeing := filepath.Join(home, "run21.csv")
	require.NoError(t, os.WriteFile(seeing,
		[]byte("pfs_visit_id,seeing_mean,seeing_median\n100,0.7,0.68\n101,,0.5\n"), 0o644))

	for range 2 {
		_, err = run(t, dbArg, "ingest", visits)
		require.NoError(t, err)
		_, err = run(t, dbArg, "ingest", "--table", "seeing", seeing)
		require.NoError(t, err)
	}

	out, err := run(t, dbArg, "query", "-f", "json",
		"SELECT pfs_visit_id, seeing_mean FROM seeing ORDER BY pfs_visit_id")
	require.NoError(t, err)
	var recs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 2)
	assert.InDelta(t, 0.7, recs[0]["seeing_mean"], 1e-6)
	assert.Equal(t, -1.0, recs[1]["seeing_mean"])

	_, err = run(t, dbArg, "migrate")
	require.NoError(t, err)

	_, err = run(t, dbArg, "ingest", filepath.Join(home, "absent.csv"))
	assert.Error(t, err)

	_, err = run(t, dbArg, "visit", "add", "102")
	var gnErr *gn.Error
	require.ErrorAs(t, err, &gnErr)
	assert.Equal(t, errcode.RootsUnsupportedError, gnErr.Code)

	_, err = run(t, dbArg, "drop", "--force")
	require.NoError(t, err)
	_, err = run(t, dbArg, "query", "SELECT 1")
	assert.Error(t, err, "engine refuses a database without schema")
}
