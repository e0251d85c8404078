package iodb

import (
	"context"

	"github.com/Subaru-PFS/qadb/pkg/config"
	"github.com/Subaru-PFS/qadb/pkg/db"
)

// New returns an unconnected operator for the configured driver.
func New(cfg *config.DatabaseConfig) (db.Operator, error) {
	switch db.Dialect(cfg.Driver) {
	case db.Postgres:
		return NewPgxOperator(), nil
	case db.SQLite:
		return NewSQLiteOperator(), nil
	default:
		return nil, UnsupportedDriverError(cfg.Driver)
	}
}

// Open returns a connected operator for the configured driver.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (db.Operator, error) {
	op, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := op.Connect(ctx, cfg); err != nil {
		return nil, err
	}
	return op, nil
}

// Factory binds Open to a configuration. The configuration is copied,
// later changes to cfg do not affect the factory.
func Factory(cfg config.DatabaseConfig) db.Factory {
	return func(ctx context.Context) (db.Operator, error) {
		return Open(ctx, &cfg)
	}
}
