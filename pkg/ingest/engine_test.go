package ingest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Subaru-PFS/qadb/internal/ioschema"
	"github.com/Subaru-PFS/qadb/internal/iotesting"
	"github.com/Subaru-PFS/qadb/pkg/db"
	"github.com/Subaru-PFS/qadb/pkg/errcode"
	"github.com/Subaru-PFS/qadb/pkg/ingest"
	"github.com/Subaru-PFS/qadb/pkg/schema"
	"github.com/gnames/gn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func canonical(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.Canonical()
	require.NoError(t, err)
	return reg
}

// reuse hands an already connected operator to ingest.Open.
func reuse(op db.Operator) db.Factory {
	return func(context.Context) (db.Operator, error) {
		return op, nil
	}
}

// engines returns engines over freshly created canonical schemas, one
// per available database.
func engines(t *testing.T, opts ...ingest.Option) map[string]*ingest.Engine {
	t.Helper()
	ctx := context.Background()
	reg := canonical(t)

	ops := map[string]db.Operator{
		"sqlite": iotesting.ConnectSQLite(t),
	}
	if !testing.Short() {
		ops["postgres"] = iotesting.ConnectPostgres(t)
	}

	res := make(map[string]*ingest.Engine, len(ops))
	for name, op := range ops {
		require.NoError(t, ioschema.NewManager(op, reg).CreateAll(ctx))
		e, err := ingest.Open(ctx, reuse(op), reg, opts...)
		require.NoError(t, err)
		t.Cleanup(func() { _ = e.Close() })
		res[name] = e
	}
	return res
}

func addVisits(t *testing.T, e *ingest.Engine, ids ...int) {
	t.Helper()
	rows := make([]ingest.Row, len(ids))
	for i, id := range ids {
		rows[i] = ingest.Row{"pfs_visit_id": id}
	}
	_, err := e.Upsert(context.Background(), "pfs_visit", rows)
	require.NoError(t, err)
}

func seeing(t *testing.T, e *ingest.Engine, visit int) map[string]any {
	t.Helper()
	res, err := e.Query(context.Background(),
		"SELECT * FROM seeing WHERE pfs_visit_id = "+e.Dialect().Placeholder(1),
		visit)
	require.NoError(t, err)
	require.Equal(t, 1, res.Len())
	return res.Records()[0]
}

func count(t *testing.T, e *ingest.Engine, table string) int64 {
	t.Helper()
	res, err := e.Query(context.Background(),
		"SELECT count(*) AS n FROM "+table)
	require.NoError(t, err)
	return res.Value(0, "n").(int64)
}

func TestSeeingScenario(t *testing.T) {
	ctx := context.Background()
	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			addVisits(t, e, 100)

			stats, err := e.Upsert(ctx, "seeing", []ingest.Row{{
				"pfs_visit_id":   100,
				"seeing_mean":    0.7,
				"seeing_median":  0.68,
				"seeing_sigma":   0.05,
				"wavelength_ref": 650,
			}})
			require.NoError(t, err)
			assert.Equal(t, ingest.Stats{Inserted: 1}, stats)

			row := seeing(t, e, 100)
			assert.Equal(t, 0.7, row["seeing_mean"])
			assert.Equal(t, 0.68, row["seeing_median"])
			assert.Equal(t, 0.05, row["seeing_sigma"])
			assert.Equal(t, 650.0, row["wavelength_ref"])

			stats, err = e.Upsert(ctx, "seeing", []ingest.Row{{
				"pfs_visit_id": 100,
				"seeing_mean":  0.9,
			}})
			require.NoError(t, err)
			assert.Equal(t, ingest.Stats{Updated: 1}, stats)

			row = seeing(t, e, 100)
			assert.Equal(t, 0.9, row["seeing_mean"])
			assert.Equal(t, 0.68, row["seeing_median"], "absent columns are kept")
			assert.Equal(t, 0.05, row["seeing_sigma"])
			assert.Equal(t, 650.0, row["wavelength_ref"])
			assert.Equal(t, int64(1), count(t, e, "seeing"))
		})
	}
}

func TestIdempotentUpsert(t *testing.T) {
	ctx := context.Background()
	rows := []ingest.Row{
		{"pfs_visit_id": 100, "agc_exposure_id": 1, "seeing_mean": 0.71},
		{"pfs_visit_id": 100, "agc_exposure_id": 2, "seeing_mean": 0.72},
		{"pfs_visit_id": 101, "agc_exposure_id": 1, "seeing_mean": 0.8,
			"taken_at": "2025-05-20T10:30:00"},
	}

	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			addVisits(t, e, 100, 101)

			stats, err := e.Upsert(ctx, "seeing_agc_exposure", rows)
			require.NoError(t, err)
			assert.Equal(t, ingest.Stats{Inserted: 3}, stats)

			q := "SELECT * FROM seeing_agc_exposure " +
				"ORDER BY pfs_visit_id, agc_exposure_id"
			first, err := e.Query(ctx, q)
			require.NoError(t, err)

			stats, err = e.Upsert(ctx, "seeing_agc_exposure", rows)
			require.NoError(t, err)
			assert.Equal(t, ingest.Stats{Updated: 3}, stats)

			second, err := e.Query(ctx, q)
			require.NoError(t, err)
			assert.Equal(t, first, second)
			assert.Equal(t, 3, second.Len())

			at, ok := second.Value(2, "taken_at").(time.Time)
			require.True(t, ok)
			assert.True(t, at.Equal(time.Date(2025, 5, 20, 10, 30, 0, 0, time.UTC)))
		})
	}
}

func TestSentinel(t *testing.T) {
	ctx := context.Background()
	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			addVisits(t, e, 100)

			_, err := e.Upsert(ctx, "seeing", []ingest.Row{{
				"pfs_visit_id":   100,
				"seeing_mean":    nil,
				"seeing_median":  math.NaN(),
				"wavelength_ref": "",
			}})
			require.NoError(t, err)

			row := seeing(t, e, 100)
			assert.Equal(t, -1.0, row["seeing_mean"])
			assert.Equal(t, -1.0, row["seeing_median"])
			assert.Equal(t, -1.0, row["wavelength_ref"])
			assert.Nil(t, row["seeing_sigma"], "absent columns stay NULL")
		})
	}
}

func TestSentinelTypes(t *testing.T) {
	ctx := context.Background()
	for name, e := range engines(t, ingest.OptSentinel(-999)) {
		t.Run(name, func(t *testing.T) {
			addVisits(t, e, 100)

			_, err := e.Upsert(ctx, "pfs_visit", []ingest.Row{{
				"pfs_visit_id":          100,
				"pfs_visit_description": nil,
				"pfs_design_id":         nil,
				"issued_at":             nil,
			}})
			require.NoError(t, err)

			res, err := e.Query(ctx, "SELECT * FROM pfs_visit")
			require.NoError(t, err)
			row := res.Records()[0]
			assert.Nil(t, row["pfs_visit_description"], "strings stay NULL")
			assert.Equal(t, int64(-999), row["pfs_design_id"])
			assert.Nil(t, row["issued_at"])
		})
	}
}

func TestNullKeyDrop(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	for name, e := range engines(t, ingest.OptLogger(logger)) {
		t.Run(name, func(t *testing.T) {
			buf.Reset()
			addVisits(t, e, 100)

			stats, err := e.Upsert(ctx, "seeing", []ingest.Row{
				{"seeing_mean": 0.5},
				{"pfs_visit_id": nil, "seeing_mean": 0.6},
				{"pfs_visit_id": math.NaN(), "seeing_mean": 0.6},
				{"pfs_visit_id": 100, "seeing_mean": 0.7},
			})
			require.NoError(t, err)
			assert.Equal(t, ingest.Stats{Inserted: 1, Dropped: 3}, stats)
			assert.Equal(t, int64(1), count(t, e, "seeing"))

			var warnings int
			for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
				var rec map[string]any
				require.NoError(t, json.Unmarshal([]byte(line), &rec))
				if rec["level"] == "WARN" {
					warnings++
					assert.Equal(t, "pfs_visit_id", rec["missing"])
					assert.Equal(t, "seeing", rec["table"])
					assert.NotEmpty(t, rec["batch"])
				}
			}
			assert.Equal(t, 3, warnings)
		})
	}
}

func TestFallbackLog(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	for name, e := range engines(t, ingest.OptLogger(logger)) {
		t.Run(name, func(t *testing.T) {
			addVisits(t, e, 100)
			row := []ingest.Row{{"pfs_visit_id": 100, "moon_phase": 0.3}}
			_, err := e.Upsert(ctx, "moon", row)
			require.NoError(t, err)

			buf.Reset()
			_, err = e.Upsert(ctx, "moon", row)
			require.NoError(t, err)
			assert.Contains(t, buf.String(), "Row exists, updated")
			assert.Contains(t, buf.String(), "pfs_visit_id=100")
		})
	}
}

func TestUnchanged(t *testing.T) {
	ctx := context.Background()
	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			stats, err := e.Upsert(ctx, "pfs_visit", []ingest.Row{
				{"pfs_visit_id": 100},
				{"pfs_visit_id": 100},
				{"pfs_visit_id": "100"},
			})
			require.NoError(t, err)
			assert.Equal(t, ingest.Stats{Inserted: 1, Unchanged: 2}, stats)
			assert.Equal(t, 3, stats.Total())
		})
	}
}

func TestBatchAbortsOnFirstFailure(t *testing.T) {
	ctx := context.Background()
	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			addVisits(t, e, 100, 102)

			stats, err := e.Upsert(ctx, "seeing", []ingest.Row{
				{"pfs_visit_id": 100, "seeing_mean": 0.7},
				{"seeing_mean": 0.1},
				{"pfs_visit_id": 999, "seeing_mean": 0.8},
				{"pfs_visit_id": 102, "seeing_mean": 0.9},
			})
			require.Error(t, err)
			assert.True(t, db.IsForeignKeyViolation(err),
				"database errors are returned as they are")
			assert.Equal(t, ingest.Stats{Inserted: 1, Dropped: 1}, stats)

			res, err := e.Query(ctx, "SELECT pfs_visit_id FROM seeing")
			require.NoError(t, err)
			require.Equal(t, 1, res.Len(), "rows after the failure are not written")
			assert.Equal(t, int64(100), res.Value(0, "pfs_visit_id"))

			wrapped := ingest.RowError("seeing", 2, stats, err)
			gnErr, ok := wrapped.(*gn.Error)
			require.True(t, ok)
			assert.Equal(t, errcode.IngestRowError, gnErr.Code)
			assert.True(t, db.IsForeignKeyViolation(gnErr.Err))
		})
	}
}

func TestInputErrors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		msg   string
		table string
		row   ingest.Row
		code  gn.ErrorCode
	}{
		{"no table", "", ingest.Row{"pfs_visit_id": 100}, errcode.IngestEmptyTableNameError},
		{"unknown table", "seeing_qa", ingest.Row{"pfs_visit_id": 100}, errcode.IngestUnknownTableError},
		{"unknown column", "seeing", ingest.Row{"pfs_visit_id": 100, "fwhm": 0.7}, errcode.IngestUnknownColumnError},
		{"bad number", "seeing", ingest.Row{"pfs_visit_id": 100, "seeing_mean": "good"}, errcode.IngestValueError},
		{"fractional id", "seeing", ingest.Row{"pfs_visit_id": 100.5}, errcode.IngestValueError},
		{"bad arm", "calibs_qa_detector", ingest.Row{"qa_id": 1, "arm": "x", "spectrograph": 1}, errcode.IngestValueError},
		{"bad time", "pfs_visit", ingest.Row{"pfs_visit_id": 100, "issued_at": "yesterday"}, errcode.IngestValueError},
	}

	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			addVisits(t, e, 100)
			for _, v := range tests {
				stats, err := e.Upsert(ctx, v.table, []ingest.Row{v.row})
				require.Error(t, err, v.msg)
				gnErr, ok := err.(*gn.Error)
				require.True(t, ok, v.msg)
				assert.Equal(t, v.code, gnErr.Code, v.msg)
				assert.Zero(t, stats.Total(), v.msg)
			}
			assert.Equal(t, int64(0), count(t, e, "seeing"))
		})
	}
}

func TestIntegerRange(t *testing.T) {
	ctx := context.Background()
	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			for i, v := range []any{"1e20", 1e20, 9.3e18, -1e19} {
				stats, err := e.Upsert(ctx, "pfs_visit", []ingest.Row{
					{"pfs_visit_id": 200 + i, "pfs_design_id": v},
				})
				gnErr, ok := err.(*gn.Error)
				require.True(t, ok, "%v", v)
				assert.Equal(t, errcode.IngestValueError, gnErr.Code, "%v", v)
				assert.Zero(t, stats.Total(), "%v", v)
			}
			assert.Equal(t, int64(0), count(t, e, "pfs_visit"))

			_, err := e.Upsert(ctx, "pfs_visit", []ingest.Row{
				{"pfs_visit_id": 300, "pfs_design_id": "9223372036854775807"},
			})
			require.NoError(t, err)
			res, err := e.Query(ctx, "SELECT pfs_design_id FROM pfs_visit")
			require.NoError(t, err)
			assert.Equal(t, int64(math.MaxInt64), res.Value(0, "pfs_design_id"))
		})
	}
}

// TestOtherUniqueConflict covers a conflict on the serial id of a row
// whose natural key is new: it is an error, not an update.
func TestOtherUniqueConflict(t *testing.T) {
	ctx := context.Background()
	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			addVisits(t, e, 100, 101)
			_, err := e.Upsert(ctx, "drp2d_processing", []ingest.Row{
				{"rerun": "run21", "pfs_visit_id": 100},
			})
			require.NoError(t, err)
			res, err := e.Query(ctx, "SELECT processing_id FROM drp2d_processing")
			require.NoError(t, err)
			procID := res.Value(0, "processing_id")

			stats, err := e.Upsert(ctx, "detectormap_qa", []ingest.Row{
				{"qa_id": 1, "processing_id": procID, "pfs_visit_id": 100},
			})
			require.NoError(t, err)
			assert.Equal(t, ingest.Stats{Inserted: 1}, stats)

			stats, err = e.Upsert(ctx, "detectormap_qa", []ingest.Row{
				{"qa_id": 1, "processing_id": procID, "pfs_visit_id": 101},
			})
			require.Error(t, err)
			assert.True(t, db.IsUniqueViolation(err))
			assert.Equal(t, ingest.Stats{}, stats)

			stats, err = e.Upsert(ctx, "detectormap_qa", []ingest.Row{
				{"qa_id": 1, "processing_id": procID, "pfs_visit_id": 100},
			})
			require.NoError(t, err, "same natural key and id is an unchanged row")
			assert.Equal(t, ingest.Stats{Unchanged: 1}, stats)
			assert.Equal(t, int64(1), count(t, e, "detectormap_qa"))
		})
	}
}

func TestForeignKeyIntegrity(t *testing.T) {
	ctx := context.Background()
	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			addVisits(t, e, 100)

			_, err := e.Upsert(ctx, "drp2d_processing", []ingest.Row{
				{"rerun": "run21", "pfs_visit_id": 100, "stage": "reduceExposure"},
			})
			require.NoError(t, err)
			res, err := e.Query(ctx, "SELECT processing_id FROM drp2d_processing")
			require.NoError(t, err)
			procID := res.Value(0, "processing_id")

			_, err = e.Upsert(ctx, "detectormap_qa", []ingest.Row{
				{"processing_id": procID, "pfs_visit_id": 100,
					"residual_wavelength_mean": 0.01},
			})
			require.NoError(t, err)
			res, err = e.Query(ctx, "SELECT qa_id FROM detectormap_qa")
			require.NoError(t, err)
			qaID := res.Value(0, "qa_id")

			stats, err := e.Upsert(ctx, "detectormap_qa_detector", []ingest.Row{
				{"qa_id": qaID, "arm": "b", "spectrograph": 1},
				{"qa_id": qaID, "arm": "r", "spectrograph": 1},
			})
			require.NoError(t, err)
			assert.Equal(t, 2, stats.Inserted)

			_, err = e.Upsert(ctx, "detectormap_qa_detector", []ingest.Row{
				{"qa_id": 424242, "arm": "b", "spectrograph": 1},
			})
			assert.True(t, db.IsForeignKeyViolation(err))

			_, err = e.Upsert(ctx, "detectormap_qa", []ingest.Row{
				{"processing_id": 424242, "pfs_visit_id": 100},
			})
			assert.True(t, db.IsForeignKeyViolation(err))
		})
	}
}

func TestSerialNaturalKey(t *testing.T) {
	ctx := context.Background()
	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			stats, err := e.Upsert(ctx, "calibs", []ingest.Row{
				{"calib_name": "CALIB-2024-07-v1", "drp_version": "w.2024.28"},
				{"calib_name": "CALIB-2024-08-v1"},
			})
			require.NoError(t, err)
			assert.Equal(t, 2, stats.Inserted)

			before, err := e.Query(ctx,
				"SELECT calib_id, calib_name FROM calibs ORDER BY calib_id")
			require.NoError(t, err)

			stats, err = e.Upsert(ctx, "calibs", []ingest.Row{
				{"calib_id": nil, "calib_name": "CALIB-2024-07-v1",
					"drp_version": "w.2024.30"},
			})
			require.NoError(t, err)
			assert.Equal(t, ingest.Stats{Updated: 1}, stats)

			after, err := e.Query(ctx,
				"SELECT calib_id, calib_name FROM calibs ORDER BY calib_id")
			require.NoError(t, err)
			assert.Equal(t, before, after, "serial ids are kept")

			res, err := e.Query(ctx,
				"SELECT drp_version FROM calibs WHERE calib_name = 'CALIB-2024-07-v1'")
			require.NoError(t, err)
			assert.Equal(t, "w.2024.30", res.Value(0, "drp_version"))
		})
	}
}

type countingObserver struct {
	mu       sync.Mutex
	outcomes map[ingest.Outcome]int
	errors   int
}

func (o *countingObserver) ObserveRow(_ string, out ingest.Outcome, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes[out]++
}

func (o *countingObserver) ObserveError(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors++
}

func TestObserver(t *testing.T) {
	ctx := context.Background()
	obs := &countingObserver{outcomes: make(map[ingest.Outcome]int)}

	e := engines(t, ingest.OptObserver(obs))["sqlite"]
	addVisits(t, e, 100)
	_, err := e.Upsert(ctx, "moon", []ingest.Row{
		{"pfs_visit_id": 100, "moon_alt": 12.5},
		{"pfs_visit_id": 100, "moon_alt": 13.5},
		{"moon_alt": 14.5},
		{"pfs_visit_id": 100, "moon_alt": "high"},
	})
	require.Error(t, err)

	assert.Equal(t, 2, obs.outcomes[ingest.Inserted], "visit and moon")
	assert.Equal(t, 1, obs.outcomes[ingest.Updated])
	assert.Equal(t, 1, obs.outcomes[ingest.Dropped])
	assert.Equal(t, 1, obs.errors)
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	e := engines(t)["sqlite"]

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	_, err := e.Upsert(ctx, "pfs_visit", []ingest.Row{{"pfs_visit_id": 1}})
	gnErr, ok := err.(*gn.Error)
	require.True(t, ok)
	assert.Equal(t, errcode.IngestClosedError, gnErr.Code)

	_, err = e.Query(ctx, "SELECT 1")
	assert.Error(t, err)
}

func TestOpenChecksVersion(t *testing.T) {
	ctx := context.Background()
	reg := canonical(t)

	t.Run("no schema", func(t *testing.T) {
		op := iotesting.ConnectSQLite(t)
		_, err := ingest.Open(ctx, reuse(op), reg)
		require.Error(t, err)
		gnErr, ok := err.(*gn.Error)
		require.True(t, ok)
		assert.Equal(t, errcode.SchemaVersionError, gnErr.Code)
	})

	t.Run("old schema", func(t *testing.T) {
		op := iotesting.ConnectSQLite(t)
		require.NoError(t, ioschema.NewManager(op, reg).CreateAll(ctx))
		_, err := op.Exec(ctx, "UPDATE schema_versions SET version = 'v0.0.1'")
		require.NoError(t, err)

		_, err = ingest.Open(ctx, reuse(op), reg)
		require.Error(t, err)
		gnErr, ok := err.(*gn.Error)
		require.True(t, ok)
		assert.Equal(t, errcode.SchemaVersionMismatchError, gnErr.Code)
	})

	t.Run("registry without versions", func(t *testing.T) {
		op := iotesting.ConnectSQLite(t)
		visits, _ := reg.Table(schema.PfsVisitTable)
		small, err := schema.New(visits)
		require.NoError(t, err)
		require.NoError(t, ioschema.NewManager(op, small).CreateAll(ctx))

		e, err := ingest.Open(ctx, reuse(op), small)
		require.NoError(t, err)
		stats, err := e.Upsert(ctx, "pfs_visit", []ingest.Row{{"pfs_visit_id": 7}})
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Inserted)

		_, err = e.Upsert(ctx, "seeing", []ingest.Row{{"pfs_visit_id": 7}})
		assert.Error(t, err, "tables outside the registry are unknown")
	})
}
