package manifest

import (
	"fmt"
	"slices"
	"strings"
)

var formats = []string{"csv", "tsv", "tab", "json", "jsonl", "ndjson"}

// Validate checks the manifest for errors. Tables are checked when
// tables is not empty. Non-fatal issues go to Warnings.
func (m *Manifest) Validate(tables []string) error {
	if len(m.Inputs) == 0 {
		return fmt.Errorf("no inputs specified in manifest")
	}

	seen := make(map[string]int)
	for i := range m.Inputs {
		in := &m.Inputs[i]
		warnings, err := in.Validate(i+1, tables)
		if err != nil {
			return fmt.Errorf("input %d: %w", i+1, err)
		}
		m.Warnings = append(m.Warnings, warnings...)

		if first, ok := seen[in.Location]; ok {
			m.Warnings = append(m.Warnings, ValidationWarning{
				Position: i + 1,
				Field:    "location",
				Message:  fmt.Sprintf("%s is also input %d", in.Location, first),
				Suggestion: "Remove the duplicate, ingesting a file twice " +
					"only repeats the same updates",
			})
			continue
		}
		seen[in.Location] = i + 1
	}

	return nil
}

// Validate checks a single input. File existence is checked when the
// file is read.
func (in *Input) Validate(position int, tables []string) ([]ValidationWarning, error) {
	var warnings []ValidationWarning

	in.Location = strings.TrimSpace(in.Location)
	in.Table = strings.TrimSpace(in.Table)
	in.Format = strings.ToLower(strings.TrimSpace(in.Format))

	if in.Location == "" {
		return nil, fmt.Errorf("location is required")
	}

	if in.Format != "" && !slices.Contains(formats, in.Format) {
		return nil, fmt.Errorf(
			"invalid format %q: must be one of %s",
			in.Format, strings.Join(formats, ", "),
		)
	}

	if in.Format == "" && !slices.Contains(formats, extension(in.Location)) {
		return nil, fmt.Errorf(
			"cannot guess format of %s: set 'format' to one of %s",
			in.Location, strings.Join(formats, ", "),
		)
	}

	name := in.TableName()
	if len(tables) > 0 && !slices.Contains(tables, name) {
		if in.Table == "" {
			return nil, fmt.Errorf(
				"no table %q derived from %s: set 'table'", name, in.Location,
			)
		}
		return nil, fmt.Errorf("unknown table %q", name)
	}

	if in.Table == "" {
		warnings = append(warnings, ValidationWarning{
			Position:   position,
			Field:      "table",
			Message:    fmt.Sprintf("table %q derived from file name", name),
			Suggestion: fmt.Sprintf("Add 'table: %s' to make it explicit", name),
		})
	}

	return warnings, nil
}

func extension(location string) string {
	i := strings.LastIndex(location, ".")
	if i < 0 || strings.Contains(location[i:], "/") {
		return ""
	}
	return strings.ToLower(location[i+1:])
}
