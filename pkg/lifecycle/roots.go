package lifecycle

import (
	"context"

	"github.com/Subaru-PFS/qadb/pkg/schema"
)

// Roots keeps the root entities QA rows refer to: visits, calibration
// sets and processing runs. QA producers only reference them, so they
// are registered separately from QA ingestion.
type Roots interface {
	// AddVisit registers a visit. A visit that is already registered
	// gets its description, design and issue time replaced.
	AddVisit(ctx context.Context, v *schema.PfsVisit) error

	// Visits returns up to limit most recent visits, newest first.
	Visits(ctx context.Context, limit int) ([]schema.PfsVisit, error)

	// AddCalib registers a calibration set by name and fills in its
	// CalibID. An existing set with the same name is updated.
	AddCalib(ctx context.Context, c *schema.Calib) error

	// AddDrp2dProcessing registers a 2D pipeline run by rerun name and
	// fills in its ProcessingID.
	AddDrp2dProcessing(ctx context.Context, p *schema.Drp2dProcessing) error

	// AddDrp1dProcessing registers a 1D pipeline run by rerun name and
	// fills in its ProcessingID.
	AddDrp1dProcessing(ctx context.Context, p *schema.Drp1dProcessing) error
}
