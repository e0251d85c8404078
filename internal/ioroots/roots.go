// Package ioroots implements the lifecycle.Roots interface with GORM
// over the PostgreSQL pool of a database operator.
package ioroots

import (
	"context"

	"github.com/Subaru-PFS/qadb/internal/iodb"
	"github.com/Subaru-PFS/qadb/pkg/db"
	"github.com/Subaru-PFS/qadb/pkg/lifecycle"
	"github.com/Subaru-PFS/qadb/pkg/schema"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type roots struct {
	operator db.Operator
	gormDB   *gorm.DB
}

// New creates a Roots repository. The operator may connect later, the
// GORM session is opened on first use.
func New(op db.Operator) lifecycle.Roots {
	return &roots{operator: op}
}

func (r *roots) session(ctx context.Context) (*gorm.DB, error) {
	if r.gormDB != nil {
		return r.gormDB.WithContext(ctx), nil
	}

	pooler, ok := r.operator.(db.Pooler)
	if !ok {
		return nil, UnsupportedError(r.operator.Dialect())
	}
	pool := pooler.Pool()
	if pool == nil {
		return nil, iodb.NotConnectedError()
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{Conn: sqlDB}),
		&gorm.Config{Logger: logger.Discard},
	)
	if err != nil {
		return nil, GORMConnectionError(err)
	}
	r.gormDB = gormDB
	return gormDB.WithContext(ctx), nil
}

// upsert creates a row or updates the given columns of the row that
// conflicts on key. Serial ids are written back into the model.
func (r *roots) upsert(
	ctx context.Context,
	model any,
	table string,
	key string,
	keyValue any,
	update []string,
) error {
	gdb, err := r.session(ctx)
	if err != nil {
		return err
	}
	err = gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: key}},
		DoUpdates: clause.AssignmentColumns(update),
	}).Create(model).Error
	if err != nil {
		return WriteError(table, keyValue, err)
	}
	return nil
}

func (r *roots) AddVisit(ctx context.Context, v *schema.PfsVisit) error {
	return r.upsert(ctx, v, schema.PfsVisitTable, "pfs_visit_id", v.PfsVisitID,
		[]string{"pfs_visit_description", "pfs_design_id", "issued_at"})
}

func (r *roots) Visits(ctx context.Context, limit int) ([]schema.PfsVisit, error) {
	gdb, err := r.session(ctx)
	if err != nil {
		return nil, err
	}

	var res []schema.PfsVisit
	q := gdb.Order("pfs_visit_id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err = q.Find(&res).Error; err != nil {
		return nil, ReadError(schema.PfsVisitTable, err)
	}
	return res, nil
}

func (r *roots) AddCalib(ctx context.Context, c *schema.Calib) error {
	return r.upsert(ctx, c, schema.CalibsTable, "calib_name", c.CalibName,
		[]string{"calib_description", "drp_version", "generated_at"})
}

var processingUpdates = []string{
	"description", "pfs_visit_id", "stage", "drp_version",
	"started_at", "finished_at", "status",
}

func (r *roots) AddDrp2dProcessing(
	ctx context.Context,
	p *schema.Drp2dProcessing,
) error {
	update := append([]string{"calib_id"}, processingUpdates...)
	return r.upsert(ctx, p, schema.Drp2dProcessingTable, "rerun", p.Rerun, update)
}

func (r *roots) AddDrp1dProcessing(
	ctx context.Context,
	p *schema.Drp1dProcessing,
) error {
	return r.upsert(ctx, p, schema.Drp1dProcessingTable, "rerun", p.Rerun,
		processingUpdates)
}
