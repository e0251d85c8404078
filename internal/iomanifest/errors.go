package iomanifest

import (
	"fmt"

	"github.com/Subaru-PFS/qadb/pkg/errcode"
	"github.com/gnames/gn"
)

// LoadError creates an error for when a manifest cannot be loaded.
func LoadError(path string, err error) error {
	msg := `Cannot load ingest manifest

<em>Manifest file:</em> %s

<em>Possible causes:</em>
  - File does not exist
  - Invalid YAML format
  - An input without location, or with an unknown table or format

<em>How to fix:</em>
  1. Check if file exists: <em>ls -l %s</em>
  2. Validate YAML syntax
  3. List valid tables: <em>qadb schema --names</em>`

	vars := []any{path, path}

	return &gn.Error{
		Code: errcode.ManifestLoadError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to load manifest: %w", err),
	}
}

// FilterError creates an error for a filter that selects no inputs.
func FilterError(filter string, err error) error {
	msg := `No manifest inputs match <em>%s</em>

<em>How to fix:</em>
  Use input positions (1,3,5-), table names (seeing,moon) or both`

	vars := []any{filter}

	return &gn.Error{
		Code: errcode.ManifestFilterError,
		Msg:  msg,
		Vars: vars,
		Err:  err,
	}
}
