package schema

func drp1dTables() []Table {
	return []Table{
		{
			Name: "drp1d_processing_qa",
			Doc:  "Information on the 1D DRP processing results",
			Columns: []Column{
				integer("qa_id", "QA ID").NotNull(),
				integer("processing_id", "1D DRP processing ID").NotNull(),
				visitID(),
				text("qa_type", "the type of QA processing").NotNull(),
				text("qa_version", "QA code version"),
				timestamp("processed_at", "datetime of the processing"),
			},
			PrimaryKey: []string{"qa_id"},
			NaturalKey: []string{"processing_id", "pfs_visit_id", "qa_type"},
			Serial:     "qa_id",
			ForeignKeys: []ForeignKey{
				{
					Columns:    []string{"processing_id"},
					RefTable:   Drp1dProcessingTable,
					RefColumns: []string{"processing_id"},
				},
				visitFK(),
			},
		},
		{
			Name: "redshift_measurement",
			Doc:  "Quality of 1D redshift measurements",
			Columns: append([]Column{
				integer("qa_id", "QA ID of the 1D processing QA row").NotNull(),
				integer("number_of_galaxies", "the number of galaxies classified"),
			}, stats("chisq", "chi^2 in the fitting", "")...),
			PrimaryKey: []string{"qa_id"},
			NaturalKey: []string{"qa_id"},
			ForeignKeys: []ForeignKey{{
				Columns:    []string{"qa_id"},
				RefTable:   "drp1d_processing_qa",
				RefColumns: []string{"qa_id"},
			}},
		},
	}
}
