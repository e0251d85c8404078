// Package ioschema implements the lifecycle.SchemaManager interface.
// This is an impure I/O package that runs DDL generated from a schema
// registry through a database operator.
package ioschema

import (
	"context"
	"log/slog"
	"time"

	qadb "github.com/Subaru-PFS/qadb/pkg"
	"github.com/Subaru-PFS/qadb/pkg/db"
	"github.com/Subaru-PFS/qadb/pkg/lifecycle"
	"github.com/Subaru-PFS/qadb/pkg/schema"
)

// manager implements the lifecycle.SchemaManager interface.
type manager struct {
	operator db.Operator
	registry *schema.Registry
	version  string
}

// NewManager creates a new SchemaManager for the tables of the
// registry.
func NewManager(op db.Operator, reg *schema.Registry) lifecycle.SchemaManager {
	return &manager{operator: op, registry: reg, version: qadb.SchemaVersion}
}

// CreateAll creates all tables of the registry, parents first, and
// records the schema version.
func (m *manager) CreateAll(ctx context.Context) error {
	d := m.operator.Dialect()
	for _, name := range m.registry.CreateOrder() {
		if err := m.createTable(ctx, d, name); err != nil {
			return err
		}
	}

	if err := m.recordVersion(ctx); err != nil {
		return err
	}

	slog.Info("Schema created",
		"dialect", d,
		"tables", m.registry.Len(),
		"version", m.version,
	)
	return nil
}

// DropAll drops all tables of the registry, children first.
func (m *manager) DropAll(ctx context.Context) error {
	d := m.operator.Dialect()
	for _, name := range m.registry.DropOrder() {
		t, _ := m.registry.Table(name)
		if _, err := m.operator.Exec(ctx, t.DropDDL(d)); err != nil {
			return DropSchemaError(name, err)
		}
	}

	slog.Info("Schema dropped", "dialect", d, "tables", m.registry.Len())
	return nil
}

// Ensure creates missing tables and records the schema version when it
// is absent.
func (m *manager) Ensure(ctx context.Context) error {
	d := m.operator.Dialect()
	var created int
	for _, name := range m.registry.CreateOrder() {
		exists, err := m.operator.TableExists(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err = m.createTable(ctx, d, name); err != nil {
			return err
		}
		created++
	}

	version, err := m.Version(ctx)
	if err != nil {
		return err
	}
	if version != m.version {
		if err = m.recordVersion(ctx); err != nil {
			return err
		}
	}

	slog.Info("Schema ensured",
		"dialect", d,
		"created_tables", created,
		"version", m.version,
	)
	return nil
}

// Version returns the recorded schema version.
func (m *manager) Version(ctx context.Context) (string, error) {
	exists, err := m.operator.TableExists(ctx, schema.SchemaVersionsTable)
	if err != nil || !exists {
		return "", err
	}
	return schema.RecordedVersion(ctx, m.operator)
}

func (m *manager) createTable(
	ctx context.Context,
	d db.Dialect,
	name string,
) error {
	t, _ := m.registry.Table(name)
	for _, stmt := range tableStatements(t, d) {
		if _, err := m.operator.Exec(ctx, stmt); err != nil {
			return CreateSchemaError(name, err)
		}
	}
	slog.Debug("Table created", "table", name)
	return nil
}

// recordVersion stores the version row unless the registry has no
// schema_versions table.
func (m *manager) recordVersion(ctx context.Context) error {
	if _, ok := m.registry.Table(schema.SchemaVersionsTable); !ok {
		return nil
	}
	q, args := versionInsert(m.operator.Dialect(), m.version, time.Now().UTC())
	if _, err := m.operator.Exec(ctx, q, args...); err != nil {
		if db.IsUniqueViolation(err) {
			return nil
		}
		return VersionRecordError(m.version, err)
	}
	return nil
}
