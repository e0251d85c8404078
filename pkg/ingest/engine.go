// Package ingest writes QA rows into a QA database.
//
// Rows are upserted: a row is inserted, and when a row with the same
// natural key already exists, the supplied columns of the existing row
// are overwritten instead. Repeating a batch leaves the database as it
// was after the first run.
//
// An Engine owns one database connection and processes rows one at a
// time, in order. It is not safe for concurrent use; transports that
// share an engine serialize their calls.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	qadb "github.com/Subaru-PFS/qadb/pkg"
	"github.com/Subaru-PFS/qadb/pkg/db"
	"github.com/Subaru-PFS/qadb/pkg/schema"
	"github.com/google/uuid"
)

// Row is one record addressed to a table: column name to value.
// Absent columns are not written. A nil or NaN value in a numeric
// column is replaced by the sentinel, in other columns it is NULL.
type Row map[string]any

// Engine upserts QA rows and runs queries over one connection.
type Engine struct {
	op       db.Operator
	registry *schema.Registry
	sentinel float64
	observer Observer
	logger   *slog.Logger
	closed   bool
}

// Option configures an Engine.
type Option func(*Engine)

// OptSentinel sets the value written instead of missing numbers.
// Default is -1.
func OptSentinel(f float64) Option {
	return func(e *Engine) {
		e.sentinel = f
	}
}

// OptObserver sets the receiver of per-row outcomes.
func OptObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// OptLogger sets the logger. Default is slog.Default() at Open time.
func OptLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Open acquires a connection from factory and returns an Engine for the
// tables of the registry. If the registry has a schema_versions table,
// the recorded version must not be older than qadb.SchemaVersion. The
// caller must Close the Engine.
func Open(
	ctx context.Context,
	factory db.Factory,
	registry *schema.Registry,
	opts ...Option,
) (*Engine, error) {
	res := &Engine{
		registry: registry,
		sentinel: -1,
		observer: noopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(res)
	}

	op, err := factory(ctx)
	if err != nil {
		return nil, err
	}
	res.op = op

	if _, ok := registry.Table(schema.SchemaVersionsTable); ok {
		version, err := schema.RecordedVersion(ctx, op)
		if err == nil {
			err = schema.CheckVersion(version, qadb.SchemaVersion)
		}
		if err != nil {
			_ = op.Close()
			return nil, err
		}
	}

	return res, nil
}

// Close releases the connection. Later calls do nothing.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return e.op.Close()
}

// Registry returns the tables the engine accepts.
func (e *Engine) Registry() *schema.Registry {
	return e.registry
}

// Dialect returns the SQL flavor of the connection.
func (e *Engine) Dialect() db.Dialect {
	return e.op.Dialect()
}

// Query runs a statement and returns its full result.
func (e *Engine) Query(
	ctx context.Context,
	sql string,
	args ...any,
) (*db.Result, error) {
	if e.closed {
		return nil, ClosedError()
	}
	return e.op.Query(ctx, sql, args...)
}

// Upsert writes rows into the table in order.
//
// Unknown tables, unknown columns and values that cannot be converted to
// their column type are errors. Rows without a complete natural key are
// dropped with a warning. The first error aborts the batch: rows before
// it stay written, the returned Stats counts them, and the error is
// returned as the database reported it.
func (e *Engine) Upsert(
	ctx context.Context,
	table string,
	rows []Row,
) (Stats, error) {
	var stats Stats
	if e.closed {
		return stats, ClosedError()
	}
	if table == "" {
		return stats, EmptyTableNameError()
	}
	tbl, ok := e.registry.Table(table)
	if !ok {
		return stats, UnknownTableError(table)
	}

	log := e.logger.With("batch", uuid.NewString(), "table", table)
	start := time.Now()
	for i, row := range rows {
		rowStart := time.Now()
		outcome, err := e.upsertRow(ctx, log.With("row", i), tbl, row)
		if err != nil {
			e.observer.ObserveError(table)
			log.Error("Batch aborted",
				"row", i,
				"inserted", stats.Inserted,
				"updated", stats.Updated,
				"unchanged", stats.Unchanged,
				"dropped", stats.Dropped,
				"error", err,
			)
			return stats, err
		}
		stats.count(outcome)
		e.observer.ObserveRow(table, outcome, time.Since(rowStart))
	}

	log.Info("Batch done",
		"rows", len(rows),
		"inserted", stats.Inserted,
		"updated", stats.Updated,
		"unchanged", stats.Unchanged,
		"dropped", stats.Dropped,
		"duration", time.Since(start),
	)
	return stats, nil
}

// field is a supplied column with its converted value.
type field struct {
	name  string
	value any
}

func (e *Engine) upsertRow(
	ctx context.Context,
	log *slog.Logger,
	tbl schema.Table,
	row Row,
) (Outcome, error) {
	for name := range row {
		if _, ok := tbl.Column(name); !ok {
			return 0, UnknownColumnError(tbl.Name, name)
		}
	}

	if missing := missingKey(tbl, row); len(missing) > 0 {
		log.Warn("Row dropped, natural key is incomplete",
			"missing", strings.Join(missing, ","))
		return Dropped, nil
	}

	fields, err := e.fields(tbl, row)
	if err != nil {
		return 0, err
	}

	insertErr := e.insert(ctx, tbl, fields)
	if insertErr == nil {
		return Inserted, nil
	}
	if !db.IsUniqueViolation(insertErr) {
		return 0, insertErr
	}

	key := naturalKey(tbl, fields)
	set := updatable(tbl, fields)
	unchanged := len(set) == 0
	if unchanged {
		// setting the key to itself only tells whether the row exists
		set = key
	}

	n, err := e.update(ctx, tbl, set, key)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		// the conflict is on another unique constraint
		return 0, insertErr
	}

	if unchanged {
		log.Info("Row exists, nothing to update", "key", keyString(key))
		return Unchanged, nil
	}
	log.Info("Row exists, updated", "key", keyString(key))
	return Updated, nil
}

// fields converts supplied values in table column order.
func (e *Engine) fields(tbl schema.Table, row Row) ([]field, error) {
	var res []field
	for _, c := range tbl.Columns {
		v, ok := row[c.Name]
		if !ok {
			continue
		}

		if isMissing(c, v) {
			switch {
			case c.Name == tbl.Serial:
				// the database assigns it
				continue
			case c.Type.IsNumeric():
				val, err := sentinelValue(c, e.sentinel)
				if err != nil {
					return nil, ValueError(tbl.Name, c.Name, e.sentinel, err)
				}
				res = append(res, field{c.Name, val})
			default:
				res = append(res, field{c.Name, nil})
			}
			continue
		}

		val, err := coerce(c, v)
		if err != nil {
			return nil, ValueError(tbl.Name, c.Name, v, err)
		}
		res = append(res, field{c.Name, val})
	}
	return res, nil
}

func (e *Engine) insert(
	ctx context.Context,
	tbl schema.Table,
	fields []field,
) error {
	d := e.op.Dialect()
	cols := make([]string, len(fields))
	marks := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		cols[i] = d.Quote(f.name)
		marks[i] = d.Placeholder(i + 1)
		args[i] = f.value
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Quote(tbl.Name),
		strings.Join(cols, ", "),
		strings.Join(marks, ", "),
	)
	_, err := e.op.Exec(ctx, q, args...)
	return err
}

func (e *Engine) update(
	ctx context.Context,
	tbl schema.Table,
	set, key []field,
) (int64, error) {
	d := e.op.Dialect()
	args := make([]any, 0, len(set)+len(key))

	sets := make([]string, len(set))
	for i, f := range set {
		args = append(args, f.value)
		sets[i] = d.Quote(f.name) + " = " + d.Placeholder(len(args))
	}
	wheres := make([]string, len(key))
	for i, f := range key {
		args = append(args, f.value)
		wheres[i] = d.Quote(f.name) + " = " + d.Placeholder(len(args))
	}

	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		d.Quote(tbl.Name),
		strings.Join(sets, ", "),
		strings.Join(wheres, " AND "),
	)
	return e.op.Exec(ctx, q, args...)
}

// missingKey returns natural key columns the row does not supply.
func missingKey(tbl schema.Table, row Row) []string {
	var res []string
	for _, name := range tbl.NaturalKey {
		c, _ := tbl.Column(name)
		v, ok := row[name]
		if !ok || isMissing(c, v) {
			res = append(res, name)
		}
	}
	return res
}

// naturalKey returns the key fields in natural key order.
func naturalKey(tbl schema.Table, fields []field) []field {
	res := make([]field, 0, len(tbl.NaturalKey))
	for _, name := range tbl.NaturalKey {
		for _, f := range fields {
			if f.name == name {
				res = append(res, f)
				break
			}
		}
	}
	return res
}

func updatable(tbl schema.Table, fields []field) []field {
	var res []field
	for _, f := range fields {
		if tbl.Updatable(f.name) {
			res = append(res, f)
		}
	}
	return res
}

func keyString(key []field) string {
	parts := make([]string, len(key))
	for i, f := range key {
		parts[i] = fmt.Sprintf("%s=%v", f.name, f.value)
	}
	return strings.Join(parts, ",")
}
