package schema

import (
	"context"

	"github.com/Subaru-PFS/qadb/pkg/db"
	"github.com/gnames/gn"
	"github.com/gnames/gnlib"
)

// RecordedVersion returns the highest version stored in the
// schema_versions table, or an empty string if the table has no rows.
func RecordedVersion(ctx context.Context, exec db.Executor) (string, error) {
	q := "SELECT version FROM " + SchemaVersionsTable
	res, err := exec.Query(ctx, q)
	if err != nil {
		return "", VersionReadError(err)
	}

	var latest string
	for i := range res.Len() {
		v, _ := res.Value(i, "version").(string)
		if !gnlib.IsVersion(v) {
			return "", NotVersionError(v)
		}
		if latest == "" || gnlib.CmpVersion(v, latest) > 0 {
			latest = v
		}
	}
	return latest, nil
}

// CheckVersion compares the recorded schema version with the one the
// program writes. An older or missing version is an error. A newer one
// only produces a warning, as tables are never removed between
// versions.
func CheckVersion(recorded, want string) error {
	if recorded == "" {
		return VersionReadError(errNoVersion)
	}
	if !gnlib.IsVersion(recorded) {
		return NotVersionError(recorded)
	}
	cmp := gnlib.CmpVersion(recorded, want)
	if cmp < 0 {
		return VersionTooOldError(recorded, want)
	}
	if cmp > 0 {
		gn.Warn(
			"Database schema <em>%s</em> is newer than <em>%s</em>, "+
				"consider upgrading qadb", recorded, want,
		)
	}
	return nil
}
