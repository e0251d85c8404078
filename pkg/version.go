// Package qadb holds build information shared by the CLI and services.
package qadb

var (
	// Version of qadb, set by build flags.
	Version = "v0.1.0"

	// Build timestamp, set by build flags.
	Build = "n/a"

	// SchemaVersion is the version of the canonical QA schema. It is
	// recorded in the schema_versions table by CreateAll and compared
	// with the database at engine start.
	SchemaVersion = "v0.1.0"
)
