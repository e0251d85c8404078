package iologger

import (
	"fmt"

	"github.com/Subaru-PFS/qadb/pkg/errcode"
	"github.com/gnames/gn"
)

// CreateLogFileError is returned when the qadb log file cannot be
// opened.
func CreateLogFileError(path string, err error) error {
	msg := `Cannot create log file <em>%s</em>

<em>How to fix:</em>
  Set log.destination to stderr, or QADB_LOG_DESTINATION=stderr`
	vars := []any{path}
	return &gn.Error{
		Code: errcode.CreateLogFileError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("open log %s: %w", path, err),
	}
}
