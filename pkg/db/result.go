package db

// Result is a fully materialized tabular query result.
type Result struct {
	// Columns are the result column names in select order.
	Columns []string `json:"columns"`

	// Rows hold one slice of values per result row, aligned with Columns.
	// Values are int64, float64, string, bool, time.Time, []byte or nil.
	Rows [][]any `json:"rows"`
}

// Len returns the number of rows.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Index returns the position of a column or -1.
func (r *Result) Index(column string) int {
	for i, v := range r.Columns {
		if v == column {
			return i
		}
	}
	return -1
}

// Value returns the value of a column in the given row, or nil if either
// does not exist.
func (r *Result) Value(row int, column string) any {
	i := r.Index(column)
	if i < 0 || row < 0 || row >= r.Len() {
		return nil
	}
	return r.Rows[row][i]
}

// Records converts rows to column-keyed maps, in row order.
func (r *Result) Records() []map[string]any {
	res := make([]map[string]any, 0, r.Len())
	for _, row := range r.Rows {
		rec := make(map[string]any, len(r.Columns))
		for i, col := range r.Columns {
			rec[col] = row[i]
		}
		res = append(res, rec)
	}
	return res
}
