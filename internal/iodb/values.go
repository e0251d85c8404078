package iodb

import (
	"strconv"
)

// normalize converts driver values to the small set of types callers
// compare against: int64, float64, string, bool, time.Time, []byte and
// nil.
func normalize(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint32:
		return int64(t)
	case float32:
		// REAL columns come back as float32. Widening it directly turns
		// 0.7 into 0.699999988079071, so go through the shortest
		// decimal form.
		f, err := strconv.ParseFloat(
			strconv.FormatFloat(float64(t), 'g', -1, 32), 64,
		)
		if err != nil {
			return float64(t)
		}
		return f
	default:
		return v
	}
}
