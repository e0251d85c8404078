// Package manifest describes batches of QA files to ingest.
//
// A manifest is a YAML file that lists input files together with the
// tables they go to, so that a whole processing run can be ingested
// with one command:
//
//	inputs:
//	  - table: seeing
//	    location: s3://pfs-qa/run21/seeing_run21.csv
//	  - location: moon.csv
//	  - table: telescope
//	    location: telescope.dat
//	    format: tsv
//
// Relative locations are resolved against the manifest directory.
package manifest

import (
	"path"
	"strings"
)

// Loader reads and validates a manifest.
type Loader interface {
	Load() (*Manifest, error)
}

// Manifest is the content of a manifest file.
type Manifest struct {
	// Description is a free-text note about the batch.
	Description string `yaml:"description,omitempty"`

	// Inputs are ingested in the listed order.
	Inputs []Input `yaml:"inputs"`

	// Warnings holds non-fatal validation warnings (not serialized)
	Warnings []ValidationWarning `yaml:"-"`
}

// ValidationWarning represents a non-fatal manifest issue.
type ValidationWarning struct {
	Position   int    // 1-based position of the input
	Field      string // Field name that has the issue
	Message    string // Description of the issue
	Suggestion string // How to fix it
}

// Input is one file of a manifest.
type Input struct {
	// Location is a local path or an s3://bucket/key URL. Required.
	Location string `yaml:"location"`

	// Table receives the rows. Default: file name without extension.
	Table string `yaml:"table,omitempty"`

	// Format overrides the format guessed from the file extension:
	// csv, tsv, json or jsonl.
	Format string `yaml:"format,omitempty"`

	// Description is a free-text note about the file.
	Description string `yaml:"description,omitempty"`
}

// TableName returns Table, or the file name without its extension when
// Table is empty.
func (in Input) TableName() string {
	if in.Table != "" {
		return in.Table
	}
	return TableFromLocation(in.Location)
}

// IsS3 reports if the input is stored in an S3 bucket.
func (in Input) IsS3() bool {
	return strings.HasPrefix(in.Location, "s3://")
}

// TableFromLocation derives a table name from a file name:
// "s3://qa/run21/seeing.csv" gives "seeing".
func TableFromLocation(location string) string {
	base := path.Base(location)
	return strings.TrimSuffix(base, path.Ext(base))
}
