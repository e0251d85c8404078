package schema

// drp2dQATable builds a summary QA table with one row per 2D run and
// visit. Detail tables reference its qa_id.
func drp2dQATable(name, doc string, cols ...Column) Table {
	head := []Column{
		integer("qa_id", "QA ID").NotNull(),
		integer("processing_id", "2D DRP processing ID").NotNull(),
		visitID(),
	}
	return Table{
		Name:       name,
		Doc:        doc,
		Columns:    append(head, cols...),
		PrimaryKey: []string{"qa_id"},
		NaturalKey: []string{"processing_id", "pfs_visit_id"},
		Serial:     "qa_id",
		ForeignKeys: []ForeignKey{
			{
				Columns:    []string{"processing_id"},
				RefTable:   Drp2dProcessingTable,
				RefColumns: []string{"processing_id"},
			},
			visitFK(),
		},
	}
}

func residuals() []Column {
	return concat(
		stats("residual_wavelength", "wavelength residual averaged over fibers", "nm"),
		stats("residual_trace", "trace residual averaged over fibers", "pix"),
	)
}

func chiResiduals(what string) []Column {
	return stats("residual_chi", what+" residual in chi averaged over FoV", "counts")
}

func drp2dTables() []Table {
	extractedFibers := integer("number_of_extracted_fibers",
		"the number of extracted fibers")
	skyFibers := integer("number_of_sky_fibers",
		"the number of sky fibers to make the sky model")
	fluxStandards := integer("number_of_flux_standards",
		"the number of flux standard stars to calculate the vector")

	return []Table{
		drp2dQATable("drp2d_processing_qa",
			"Information on the 2D DRP processing QA results",
			text("drp_qa_version", "drp_qa version (e.g., w.2024.33)"),
			float("detectormap_qa_result", "summary of detectorMap QA"),
			float("extraction_qa_result", "summary of extraction QA"),
			float("sky_subtraction_qa_result", "summary of sky subtraction QA"),
			float("flux_calibration_qa_result", "summary of flux calibration QA"),
		),
		drp2dQATable("detectormap_qa",
			"Quality of the detectorMap for the visit",
			concat(qaVersionColumns(), residuals())...),
		detectorTable("detectormap_qa_detector",
			"Quality of the detectorMap per detector",
			"detectormap_qa", residuals()...),
		{
			Name: "detectormap_qa_fiber",
			Doc:  "Quality of the detectorMap per fiber",
			Columns: concat(
				[]Column{
					integer("qa_id", "QA ID of the summary row").NotNull(),
					integer("fiber_id", "fiber identifier").NotNull(),
					armColumn(),
					integer("spectrograph", "spectrograph (1/2/3/4)"),
				},
				residuals(),
			),
			PrimaryKey: []string{"qa_id", "fiber_id", "arm"},
			NaturalKey: []string{"qa_id", "fiber_id", "arm"},
			ForeignKeys: []ForeignKey{{
				Columns:    []string{"qa_id"},
				RefTable:   "detectormap_qa",
				RefColumns: []string{"qa_id"},
			}},
		},
		drp2dQATable("extraction_qa",
			"Quality of the spectral extraction for the visit",
			concat(qaVersionColumns(),
				[]Column{extractedFibers},
				chiResiduals("extraction"))...),
		detectorTable("extraction_qa_detector",
			"Quality of the spectral extraction per detector",
			"extraction_qa",
			concat([]Column{extractedFibers}, chiResiduals("extraction"))...),
		drp2dQATable("sky_subtraction_qa",
			"Quality of the sky subtraction for the visit",
			concat(qaVersionColumns(),
				[]Column{skyFibers},
				chiResiduals("sky subtraction"))...),
		detectorTable("sky_subtraction_qa_detector",
			"Quality of the sky subtraction per detector",
			"sky_subtraction_qa",
			concat([]Column{skyFibers}, chiResiduals("sky subtraction"))...),
		drp2dQATable("flux_calibration_qa",
			"Quality of the flux calibration for the visit",
			concat(qaVersionColumns(),
				[]Column{fluxStandards, float("tbd", "TBD")})...),
		detectorTable("flux_calibration_qa_detector",
			"Quality of the flux calibration per detector",
			"flux_calibration_qa",
			fluxStandards, float("tbd", "TBD")),
		drp2dQATable("cosmic_rays",
			"Quality of the cosmic rays detection for the visit",
			float("tbd", "TBD")),
		drp2dQATable("mask",
			"Information on the bit masks in the reduced products",
			integer("number_of_pix_in_each_bit", "pixel count per mask bit")),
		drp2dQATable("h4_persistence",
			"Quality of the H4RG persistence correction for the visit",
			float("tbd", "TBD")),
		drp2dQATable("dichroic_continuity",
			"Check the dichroic continuity after merging the arms",
			float("br_continuity", "continuity between b and r arms"),
			float("rn_continuity", "continuity between r and n arms"),
		),
	}
}
