package schema

import (
	"database/sql"
	"time"
)

// PfsVisit is a registered visit. Visits are issued by the observatory
// and copied into the QA database before QA rows reference them.
type PfsVisit struct {
	// PfsVisitID is the externally assigned visit identifier.
	PfsVisitID int32 `gorm:"column:pfs_visit_id;primaryKey;autoIncrement:false"`

	PfsVisitDescription sql.NullString `gorm:"column:pfs_visit_description"`

	// PfsDesignID identifies the fiber configuration of the visit.
	PfsDesignID sql.NullInt64 `gorm:"column:pfs_design_id"`

	IssuedAt sql.NullTime `gorm:"column:issued_at"`
}

// TableName returns the PostgreSQL table name.
func (PfsVisit) TableName() string { return PfsVisitTable }

// Calib is a calibration set.
type Calib struct {
	CalibID          int32          `gorm:"column:calib_id;primaryKey;autoIncrement"`
	CalibName        string         `gorm:"column:calib_name;not null;uniqueIndex"`
	CalibDescription sql.NullString `gorm:"column:calib_description"`
	DrpVersion       sql.NullString `gorm:"column:drp_version"`
	GeneratedAt      sql.NullTime   `gorm:"column:generated_at"`
}

// TableName returns the PostgreSQL table name.
func (Calib) TableName() string { return CalibsTable }

// Drp2dProcessing is one run of the 2D reduction pipeline.
type Drp2dProcessing struct {
	ProcessingID int32          `gorm:"column:processing_id;primaryKey;autoIncrement"`
	Rerun        string         `gorm:"column:rerun;not null;uniqueIndex"`
	Description  sql.NullString `gorm:"column:description"`
	CalibID      sql.NullInt32  `gorm:"column:calib_id"`
	PfsVisitID   sql.NullInt32  `gorm:"column:pfs_visit_id"`
	Stage        sql.NullString `gorm:"column:stage"`
	DrpVersion   sql.NullString `gorm:"column:drp_version"`
	StartedAt    sql.NullTime   `gorm:"column:started_at"`
	FinishedAt   sql.NullTime   `gorm:"column:finished_at"`
	Status       sql.NullInt32  `gorm:"column:status"`
}

// TableName returns the PostgreSQL table name.
func (Drp2dProcessing) TableName() string { return Drp2dProcessingTable }

// Drp1dProcessing is one run of the 1D redshift pipeline.
type Drp1dProcessing struct {
	ProcessingID int32          `gorm:"column:processing_id;primaryKey;autoIncrement"`
	Rerun        string         `gorm:"column:rerun;not null;uniqueIndex"`
	Description  sql.NullString `gorm:"column:description"`
	PfsVisitID   sql.NullInt32  `gorm:"column:pfs_visit_id"`
	Stage        sql.NullString `gorm:"column:stage"`
	DrpVersion   sql.NullString `gorm:"column:drp_version"`
	StartedAt    sql.NullTime   `gorm:"column:started_at"`
	FinishedAt   sql.NullTime   `gorm:"column:finished_at"`
	Status       sql.NullInt32  `gorm:"column:status"`
}

// TableName returns the PostgreSQL table name.
func (Drp1dProcessing) TableName() string { return Drp1dProcessingTable }

// SchemaVersion records the schema version a database was created with.
type SchemaVersion struct {
	Version     string         `gorm:"column:version;primaryKey"`
	Description sql.NullString `gorm:"column:description"`
	AppliedAt   time.Time      `gorm:"column:applied_at"`
}

// TableName returns the PostgreSQL table name.
func (SchemaVersion) TableName() string { return SchemaVersionsTable }

// RootModels returns GORM models of the root entities.
func RootModels() []any {
	return []any{
		&SchemaVersion{},
		&PfsVisit{},
		&Calib{},
		&Drp2dProcessing{},
		&Drp1dProcessing{},
	}
}
