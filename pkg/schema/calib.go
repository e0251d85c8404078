package schema

func calibQAColumns() []Column {
	return []Column{
		float("bias_qa", "QA for bias"),
		float("dark_qa", "QA for dark"),
		float("detectormap_qa", "QA for detectorMap"),
		float("fiberprofiles_qa", "QA for fiberProfiles"),
		float("fibernorms_qa", "QA for fiberNorms"),
	}
}

func calibTables() []Table {
	return []Table{
		{
			Name: "calibs_qa",
			Doc:  "Information on the calibration QA",
			Columns: concat(
				[]Column{
					integer("qa_id", "calibration QA ID").NotNull(),
					integer("calib_id", "calibration ID").NotNull(),
					text("drp_qa_version", "drp_qa version (e.g., w.2024.33)").NotNull(),
				},
				calibQAColumns(),
				[]Column{
					timestamp("processed_at", "datetime of the QA processing"),
					integer("status", "QA processing status"),
				},
			),
			PrimaryKey: []string{"qa_id"},
			NaturalKey: []string{"calib_id", "drp_qa_version"},
			Serial:     "qa_id",
			ForeignKeys: []ForeignKey{{
				Columns:    []string{"calib_id"},
				RefTable:   CalibsTable,
				RefColumns: []string{"calib_id"},
			}},
		},
		detectorTable("calibs_qa_detector",
			"Information on the calibration QA per detector",
			"calibs_qa", calibQAColumns()...),
	}
}

// detectorTable builds per-arm, per-spectrograph detail rows of a QA
// summary table.
func detectorTable(name, doc, parent string, cols ...Column) Table {
	key := []string{"qa_id", "arm", "spectrograph"}
	head := []Column{
		integer("qa_id", "QA ID of the summary row").NotNull(),
		armColumn(),
		spectrographColumn(),
	}
	return Table{
		Name:       name,
		Doc:        doc,
		Columns:    append(head, cols...),
		PrimaryKey: key,
		NaturalKey: key,
		ForeignKeys: []ForeignKey{{
			Columns:    []string{"qa_id"},
			RefTable:   parent,
			RefColumns: []string{"qa_id"},
		}},
	}
}
