package ingest

import (
	"time"
)

// Outcome is what happened to one row of a batch.
type Outcome int

const (
	// Inserted means the row was new.
	Inserted Outcome = iota

	// Updated means a row with the same natural key existed and its
	// supplied columns were overwritten.
	Updated

	// Unchanged means a row with the same natural key existed and the
	// input row had nothing besides the key to write.
	Unchanged

	// Dropped means the row was skipped with a warning: its natural key
	// was incomplete.
	Dropped
)

var outcomeNames = []string{"inserted", "updated", "unchanged", "dropped"}

// String returns a lower-case name of the outcome.
func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[o]
}

// Stats counts outcomes of the rows processed by an Upsert call. When
// Upsert fails, Stats covers the rows before the failing one.
type Stats struct {
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Dropped   int `json:"dropped"`
}

// Total is the number of rows processed.
func (s Stats) Total() int {
	return s.Inserted + s.Updated + s.Unchanged + s.Dropped
}

// Add sums two Stats.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Inserted:  s.Inserted + o.Inserted,
		Updated:   s.Updated + o.Updated,
		Unchanged: s.Unchanged + o.Unchanged,
		Dropped:   s.Dropped + o.Dropped,
	}
}

func (s *Stats) count(o Outcome) {
	switch o {
	case Inserted:
		s.Inserted++
	case Updated:
		s.Updated++
	case Unchanged:
		s.Unchanged++
	case Dropped:
		s.Dropped++
	}
}

// Observer receives the outcome of every row. Implementations must be
// fast, they are called inline.
type Observer interface {
	// ObserveRow is called after a row is handled.
	ObserveRow(table string, o Outcome, d time.Duration)

	// ObserveError is called when a row stops its batch.
	ObserveError(table string)
}

type noopObserver struct{}

func (noopObserver) ObserveRow(string, Outcome, time.Duration) {}
func (noopObserver) ObserveError(string)                       {}
