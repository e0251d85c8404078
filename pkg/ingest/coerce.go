package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Subaru-PFS/qadb/pkg/schema"
	"github.com/spf13/cast"
)

var (
	errFraction = errors.New("fractional value for an integer column")
	errEnum     = errors.New("value is not allowed")
	errRange    = errors.New("value is out of the integer range")
)

// isMissing reports whether v stands for "no value": nil, NaN, or an
// empty string in a numeric column. Empty strings are how CSV writers
// spell missing numbers.
func isMissing(c schema.Column, v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(t)
	case float32:
		return math.IsNaN(float64(t))
	case string:
		if !c.Type.IsNumeric() {
			return false
		}
		s := strings.TrimSpace(t)
		return s == "" || strings.EqualFold(s, "nan")
	}
	return false
}

// sentinelValue converts the sentinel to the column type.
func sentinelValue(c schema.Column, sentinel float64) (any, error) {
	if c.Type == schema.Real {
		return sentinel, nil
	}
	if sentinel != math.Trunc(sentinel) {
		return nil, errFraction
	}
	return int64(sentinel), nil
}

// coerce converts v to the Go type the drivers bind for the column:
// int64, float64, string or time.Time.
func coerce(c schema.Column, v any) (any, error) {
	if n, ok := v.(json.Number); ok {
		v = n.String()
	}

	switch c.Type {
	case schema.Integer, schema.BigInt:
		return toInt64(v)
	case schema.Real:
		if s, ok := v.(string); ok {
			return strconv.ParseFloat(strings.TrimSpace(s), 64)
		}
		return cast.ToFloat64E(v)
	case schema.String:
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, err
		}
		if len(c.Enum) > 0 && !slices.Contains(c.Enum, s) {
			return nil, fmt.Errorf("%w, use one of %v", errEnum, c.Enum)
		}
		return s, nil
	case schema.Timestamp:
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			return nil, nil
		}
		t, err := cast.ToTimeE(v)
		if err != nil {
			return nil, err
		}
		return t.UTC(), nil
	}
	return nil, fmt.Errorf("column type %s is not supported", c.Type)
}

func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		// base 10, so zero-padded ids stay decimal
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return floatToInt64(f)
	case float64:
		return floatToInt64(t)
	case float32:
		return floatToInt64(float64(t))
	case time.Time:
		return 0, fmt.Errorf("time %v is not an integer", t)
	}
	return cast.ToInt64E(v)
}

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, errFraction
	}
	// float64(math.MaxInt64) rounds up to 2^63
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, errRange
	}
	return int64(f), nil
}
