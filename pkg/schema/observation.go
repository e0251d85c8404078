package schema

// visitTable builds a table with exactly one row per visit.
func visitTable(name, doc string, cols ...Column) Table {
	return Table{
		Name:        name,
		Doc:         doc,
		Columns:     append([]Column{visitID()}, cols...),
		PrimaryKey:  []string{"pfs_visit_id"},
		NaturalKey:  []string{"pfs_visit_id"},
		ForeignKeys: []ForeignKey{visitFK()},
	}
}

// agcTable builds a table with one row per AGC exposure of a visit.
func agcTable(name, doc string, cols ...Column) Table {
	key := []string{"pfs_visit_id", "agc_exposure_id"}
	head := []Column{
		visitID(),
		integer("agc_exposure_id", "AGC exposure identifier").NotNull(),
	}
	head = append(head, cols...)
	head = append(head, timestamp("taken_at",
		"The time at which the exposure was taken [YYYY-MM-DDThh-mm-sss]"))
	return Table{
		Name:        name,
		Doc:         doc,
		Columns:     head,
		PrimaryKey:  key,
		NaturalKey:  key,
		ForeignKeys: []ForeignKey{visitFK()},
	}
}

func observationTables() []Table {
	seeing := append(stats("seeing", "seeing FWHM", "arcsec."),
		float("wavelength_ref", "the reference wavelength to measure the seeing (nm)"))
	transparency := append(stats("transparency", "transparency", ""),
		float("wavelength_ref", "the reference wavelength to measure the transparency (nm)"))

	return []Table{
		visitTable("seeing",
			"Statistics of seeing during a single SpS exposure",
			seeing...),
		agcTable("seeing_agc_exposure",
			"Statistics of seeing during a single AGC exposure",
			seeing...),
		visitTable("transparency",
			"Statistics of transparency during a single SpS exposure",
			transparency...),
		agcTable("transparency_agc_exposure",
			"Statistics of transparency during a single AGC exposure",
			transparency...),
		visitTable("throughput", "Total throughput for the visit",
			perArm(func(arm string) []Column {
				return append(
					stats("throughput_"+arm, "total throughput in "+arm+"-arm", ""),
					float("wavelength_ref_"+arm,
						"the reference wavelength to measure the total throughput (nm)"),
				)
			})...),
		visitTable("noise", "Background noise level for the visit",
			perArm(func(arm string) []Column {
				return append(
					stats("noise_"+arm, "background noise in "+arm+"-arm", "electron/pix"),
					float("wavelength_ref_"+arm,
						"the reference wavelength to measure the sky background noise in "+
							arm+"-arm (nm)"),
				)
			})...),
		visitTable("moon", "Information on the moon for the visit",
			float("moon_phase", "moon phase"),
			float("moon_alt", "moon altitude (deg.)"),
			float("moon_sep", "moon separation to the pointing (deg.)"),
		),
		visitTable("sky", "Information on the sky background level for the visit",
			concat(
				perArm(func(arm string) []Column {
					return append(
						stats("sky_background_"+arm,
							"sky background level in "+arm+"-arm", "counts"),
						float("wavelength_ref_"+arm,
							"the reference wavelength to measure the sky background level in "+
								arm+"-arm (nm)"),
					)
				}),
				stats("agc_background", "agc image background level", "counts"),
			)...),
		visitTable("telescope", "Information on the telescope status",
			float("azimuth", "the average telescope azimuth during the exposure (deg.)"),
			float("altitude", "the average telescope altitude during the exposure (deg.)"),
			float("airmass", "the average airmass during the exposure"),
		),
		visitTable("cobra_convergence", "Quality of the cobra convergence for the visit",
			append([]Column{
				integer("number_converged",
					"the number of converged targets within the threshold"),
			}, stats("residual", "residual of fiber configuration", "um")...)...),
		visitTable("guide_offset", "Statistics of the AGC guide errors during the exposure",
			append([]Column{
				integer("number_guide_stars", "the number of guide targets used"),
			}, stats("offset", "guide offset during the exposure", "arcsec")...)...),
		visitTable("exposure_time", "Information on the exposure_time for the visit",
			append([]Column{
				float("nominal_exposure_time", "the nominal exposure time (sec.)"),
			}, perArm(func(arm string) []Column {
				return []Column{float("effective_exposure_time_"+arm,
					"the effective exposure time inferred with the observed condition in "+
						arm+"-arm (sec.)")}
			})...)...),
	}
}
