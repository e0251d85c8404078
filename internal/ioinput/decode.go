// Package ioinput reads QA rows from CSV and JSON files, local or in
// S3 buckets.
package ioinput

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/Subaru-PFS/qadb/pkg/ingest"
)

// Format of an input file.
type Format int

const (
	UnknownFormat Format = iota
	CSV
	TSV
	JSON
	JSONLines
)

// ParseFormat converts a format name (csv, tsv, json, jsonl) to Format.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV
	case "tsv", "tab":
		return TSV
	case "json":
		return JSON
	case "jsonl", "ndjson":
		return JSONLines
	}
	return UnknownFormat
}

// FormatOf guesses the format from the file extension. A trailing .gz
// is not supported.
func FormatOf(location string) Format {
	switch strings.ToLower(path.Ext(location)) {
	case ".csv":
		return CSV
	case ".tsv", ".tab":
		return TSV
	case ".json":
		return JSON
	case ".jsonl", ".ndjson":
		return JSONLines
	}
	return UnknownFormat
}

// Decode reads all rows of r.
func Decode(r io.Reader, f Format) ([]ingest.Row, error) {
	switch f {
	case CSV:
		return decodeCSV(r, ',')
	case TSV:
		return decodeCSV(r, '\t')
	case JSON, JSONLines:
		return decodeJSON(r)
	}
	return nil, fmt.Errorf("format %d is not supported", f)
}

// decodeCSV reads a table with a header line. Empty cells become nil.
func decodeCSV(r io.Reader, comma rune) ([]ingest.Row, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, len(header))
	for i, v := range header {
		names[i] = strings.TrimSpace(v)
	}
	// pandas writes the index as an unnamed first column
	skipFirst := len(names) > 0 && names[0] == ""

	var res []ingest.Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(ingest.Row, len(names))
		for i, v := range rec {
			if i == 0 && skipFirst {
				continue
			}
			if v == "" {
				row[names[i]] = nil
				continue
			}
			row[names[i]] = v
		}
		res = append(res, row)
	}
	return res, nil
}

// decodeJSON reads an array of objects or a stream of objects, one
// per line. Numbers are kept as json.Number.
func decodeJSON(r io.Reader) ([]ingest.Row, error) {
	br := bufio.NewReader(r)
	first, err := firstByte(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	if first == '[' {
		var res []ingest.Row
		if err = dec.Decode(&res); err != nil {
			return nil, err
		}
		return res, nil
	}

	var res []ingest.Row
	for {
		var row ingest.Row
		err = dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		res = append(res, row)
	}
	return res, nil
}

func firstByte(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		if len(bytes.TrimSpace(b)) > 0 {
			return b[0], nil
		}
		if _, err = br.ReadByte(); err != nil {
			return 0, err
		}
	}
}
