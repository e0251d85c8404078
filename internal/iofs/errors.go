package iofs

import (
	"fmt"

	"github.com/Subaru-PFS/qadb/pkg/errcode"
	"github.com/gnames/gn"
)

// CreateDirError is returned when a qadb directory under the home
// directory cannot be created.
func CreateDirError(dir string, err error) error {
	msg := `Cannot create directory <em>%s</em>

<em>How to fix:</em>
  qadb keeps config.yaml in ~/.config/qadb and logs in
  ~/.local/share/qadb/logs. Check that HOME is set and writable.`
	vars := []any{dir}
	return &gn.Error{
		Code: errcode.CreateDirError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("mkdir %s: %w", dir, err),
	}
}

// CopyFileError is returned when the default config.yaml cannot be
// written.
func CopyFileError(file string, err error) error {
	msg := `Cannot write default configuration to <em>%s</em>

<em>How to fix:</em>
  Check permissions, or set QADB_* environment variables instead`
	vars := []any{file}
	return &gn.Error{
		Code: errcode.CopyFileError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("write %s: %w", file, err),
	}
}

// ReadFileError is returned when config.yaml exists but cannot be read
// or parsed.
func ReadFileError(path string, err error) error {
	msg := `Cannot read configuration <em>%s</em>

<em>How to fix:</em>
  Fix the YAML, or remove the file to get a fresh default on the next run`
	vars := []any{path}
	return &gn.Error{
		Code: errcode.ReadFileError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("read %s: %w", path, err),
	}
}
