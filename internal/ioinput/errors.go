package ioinput

import (
	"fmt"

	"github.com/Subaru-PFS/qadb/pkg/errcode"
	"github.com/gnames/gn"
)

// FormatError is returned for inputs of unknown format.
func FormatError(location string) error {
	msg := `Cannot tell the format of <em>%s</em>

<em>How to fix:</em>
  Use a .csv, .tsv, .json or .jsonl file`
	vars := []any{location}
	return &gn.Error{
		Code: errcode.InputFormatError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("unknown input format of %s", location),
	}
}

// ParseError is returned when an input cannot be decoded.
func ParseError(location string, err error) error {
	msg := "Cannot parse <em>%s</em>"
	vars := []any{location}
	return &gn.Error{
		Code: errcode.InputParseError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to parse %s: %w", location, err),
	}
}

// S3Error is returned when an object cannot be fetched.
func S3Error(location string, err error) error {
	msg := `Cannot fetch <em>%s</em>

<em>How to fix:</em>
  Check AWS credentials and s3.region, s3.endpoint in config.yaml`
	vars := []any{location}
	return &gn.Error{
		Code: errcode.InputS3Error,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to fetch %s: %w", location, err),
	}
}

// OpenError is returned when a local file cannot be opened.
func OpenError(location string, err error) error {
	msg := "Cannot open <em>%s</em>"
	vars := []any{location}
	return &gn.Error{
		Code: errcode.ReadFileError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to open %s: %w", location, err),
	}
}
