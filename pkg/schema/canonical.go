package schema

import "fmt"

// Names of root tables that other packages refer to directly.
const (
	PfsVisitTable        = "pfs_visit"
	CalibsTable          = "calibs"
	Drp2dProcessingTable = "drp2d_processing"
	Drp1dProcessingTable = "drp1d_processing"
	SchemaVersionsTable  = "schema_versions"
)

// Arms are the wavelength channels of the spectrographs.
var Arms = []string{"b", "r", "n", "m"}

// Canonical returns the registry of all QA database tables.
func Canonical() (*Registry, error) {
	return New(CanonicalTables()...)
}

// CanonicalTables returns descriptors of all QA database tables:
// root entities first, then observation, calibration, 2D and 1D
// pipeline QA.
func CanonicalTables() []Table {
	res := rootTables()
	res = append(res, observationTables()...)
	res = append(res, calibTables()...)
	res = append(res, drp2dTables()...)
	res = append(res, drp1dTables()...)
	return res
}

func rootTables() []Table {
	return []Table{
		{
			Name: SchemaVersionsTable,
			Doc:  "Version of the schema the database was created with",
			Columns: []Column{
				text("version", "semantic version of the schema").NotNull(),
				text("description", "what the version brought"),
				timestamp("applied_at", "when the schema was created"),
			},
			PrimaryKey: []string{"version"},
			NaturalKey: []string{"version"},
		},
		{
			Name: PfsVisitTable,
			Doc:  "Tracks the Gen2 visit identifier, copied from opDB",
			Columns: []Column{
				integer("pfs_visit_id", "PFS visit identifier").NotNull(),
				text("pfs_visit_description", "visit description"),
				col("pfs_design_id", BigInt, "PFS design identifier"),
				timestamp("issued_at", "Issued time [YYYY-MM-DDThh:mm:ss]"),
			},
			PrimaryKey: []string{"pfs_visit_id"},
			NaturalKey: []string{"pfs_visit_id"},
		},
		{
			Name: CalibsTable,
			Doc:  "Information on the calibration",
			Columns: []Column{
				integer("calib_id", "calibration ID").NotNull(),
				text("calib_name", "the name of CALIB (e.g. CALIB-2024-07-v1)").NotNull(),
				text("calib_description", "the description of CALIB"),
				text("drp_version", "DRP2D version (e.g., w.2023.20)"),
				timestamp("generated_at", "datetime of the calibration generation"),
			},
			PrimaryKey: []string{"calib_id"},
			NaturalKey: []string{"calib_name"},
			Serial:     "calib_id",
		},
		processingTable(Drp2dProcessingTable,
			"Information of the 2D DRP processing",
			"DRP2D version (e.g., w.2023.20)", true),
		processingTable(Drp1dProcessingTable,
			"Information of the 1D DRP processing",
			"DRP1D version (e.g., 0.40.0)", false),
	}
}

func processingTable(name, doc, version string, withCalib bool) Table {
	cols := []Column{
		integer("processing_id", "processing ID").NotNull(),
		text("rerun", "rerun name of the processing").NotNull(),
		text("description", "description of the processing"),
	}
	var fks []ForeignKey
	if withCalib {
		cols = append(cols, integer("calib_id", "calibration ID"))
		fks = append(fks, ForeignKey{
			Columns:    []string{"calib_id"},
			RefTable:   CalibsTable,
			RefColumns: []string{"calib_id"},
		})
	}
	cols = append(cols,
		integer("pfs_visit_id", "visit of visit-specific runs"),
		text("stage", "pipeline stage name"),
		text("drp_version", version),
		timestamp("started_at", "start of the processing"),
		timestamp("finished_at", "end of the processing"),
		integer("status", "Processing status"),
	)
	fks = append(fks, visitFK())
	return Table{
		Name:        name,
		Doc:         doc,
		Columns:     cols,
		PrimaryKey:  []string{"processing_id"},
		NaturalKey:  []string{"rerun"},
		Serial:      "processing_id",
		ForeignKeys: fks,
	}
}

func col(name string, t ColumnType, comment string) Column {
	return Column{Name: name, Type: t, Nullable: true, Comment: comment}
}

func integer(name, comment string) Column {
	return col(name, Integer, comment)
}

func float(name, comment string) Column {
	return col(name, Real, comment)
}

func text(name, comment string) Column {
	return col(name, String, comment)
}

func timestamp(name, comment string) Column {
	return col(name, Timestamp, comment)
}

// stats returns the mean, median and sigma columns of a quantity.
func stats(prefix, quantity, unit string) []Column {
	u := ""
	if unit != "" {
		u = " (" + unit + ")"
	}
	return []Column{
		float(prefix+"_mean", fmt.Sprintf("the mean %s%s", quantity, u)),
		float(prefix+"_median", fmt.Sprintf("the median %s%s", quantity, u)),
		float(prefix+"_sigma", fmt.Sprintf("the sigma of %s%s", quantity, u)),
	}
}

// perArm repeats a column group for every arm.
func perArm(fn func(arm string) []Column) []Column {
	var res []Column
	for _, arm := range Arms {
		res = append(res, fn(arm)...)
	}
	return res
}

func visitID() Column {
	return integer("pfs_visit_id", "PFS visit identifier").NotNull()
}

func visitFK() ForeignKey {
	return ForeignKey{
		Columns:    []string{"pfs_visit_id"},
		RefTable:   PfsVisitTable,
		RefColumns: []string{"pfs_visit_id"},
	}
}

func armColumn() Column {
	c := text("arm", "arm (b/r/n/m)").NotNull()
	c.Enum = Arms
	return c
}

func spectrographColumn() Column {
	return integer("spectrograph", "spectrograph (1/2/3/4)").NotNull()
}

func qaVersionColumns() []Column {
	return []Column{
		text("drp_qa_version", "drp_qa version (e.g., w.2024.33)"),
		timestamp("processed_at", "datetime of the QA processing"),
		integer("status", "QA processing status"),
	}
}

func concat(groups ...[]Column) []Column {
	var res []Column
	for _, g := range groups {
		res = append(res, g...)
	}
	return res
}
