package manifest

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Filter selects inputs of a manifest.
// Returns filtered inputs, warnings (for user display), and error (for
// fatal issues). Supported filters:
//   - "1,3,5": inputs at the given 1-based positions
//   - "2-4": positions in range [2, 4] (inclusive)
//   - "-3": positions from 1 to 3 (inclusive)
//   - "3-": positions from 3 to the last one
//   - "seeing,moon": inputs for the named tables
//   - "1,moon,5-": a mix of the above
//   - "": all inputs (no filtering)
//
// The manifest order is kept.
func Filter(inputs []Input, filter string) ([]Input, []string, error) {
	filter = strings.TrimSpace(filter)

	// No filter - return all inputs
	if filter == "" {
		return inputs, nil, nil
	}

	requested := make(map[int]bool)
	explicit := make(map[int]bool)
	tables := make(map[string]bool)
	var warnings []string

	for item := range strings.SplitSeq(filter, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		switch {
		case isRange(item):
			start, end, err := parseRange(item, len(inputs))
			if err != nil {
				return nil, nil, fmt.Errorf("failed to parse range '%s': %w", item, err)
			}
			if start > len(inputs) {
				warnings = append(warnings, fmt.Sprintf("range '%s' matched no inputs", item))
			}
			for pos := start; pos <= end; pos++ {
				requested[pos] = true
			}
		case isNumber(item):
			pos, _ := strconv.Atoi(item)
			requested[pos] = true
			explicit[pos] = true
		default:
			tables[item] = true
		}
	}

	var filtered []Input
	found := make(map[string]bool)
	for i, in := range inputs {
		name := in.TableName()
		if requested[i+1] || tables[name] {
			filtered = append(filtered, in)
		}
		found[name] = true
	}

	// Warn about explicit positions and tables that were not found
	var missing []int
	for pos := range explicit {
		if pos < 1 || pos > len(inputs) {
			missing = append(missing, pos)
		}
	}
	slices.Sort(missing)
	for _, pos := range missing {
		warnings = append(warnings, fmt.Sprintf("input %d not found in manifest", pos))
	}
	var absent []string
	for name := range tables {
		if !found[name] {
			absent = append(absent, name)
		}
	}
	slices.Sort(absent)
	for _, name := range absent {
		warnings = append(warnings, fmt.Sprintf("table %s not found in manifest", name))
	}

	// Return error if no inputs matched at all
	if len(filtered) == 0 {
		if len(warnings) > 0 {
			return nil, warnings, fmt.Errorf(
				"no inputs matched filter '%s': %s",
				filter,
				strings.Join(warnings, "; "),
			)
		}
		return nil, nil, fmt.Errorf("no inputs matched filter '%s'", filter)
	}

	return filtered, warnings, nil
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

func isRange(s string) bool {
	start, end, ok := strings.Cut(s, "-")
	if !ok {
		return false
	}
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" && end == "" {
		return false
	}
	return (start == "" || isNumber(start)) && (end == "" || isNumber(end))
}

// parseRange parses a range string like "2-4", "-3", or "3-"
// Returns (start, end, error)
func parseRange(rangeStr string, last int) (int, int, error) {
	startStr, endStr, _ := strings.Cut(rangeStr, "-")
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	start, end := 1, last
	var err error

	if startStr != "" {
		if start, err = strconv.Atoi(startStr); err != nil {
			return 0, 0, fmt.Errorf("invalid start value: %w", err)
		}
	}
	if endStr != "" {
		if end, err = strconv.Atoi(endStr); err != nil {
			return 0, 0, fmt.Errorf("invalid end value: %w", err)
		}
	}

	if start > end && endStr != "" {
		return 0, 0, fmt.Errorf("start (%d) must be <= end (%d)", start, end)
	}

	return start, end, nil
}
