package domain

import "fmt"

// TimeCode is a position within a source recording, in milliseconds.
// The zero position is valid (a track starting at the very beginning),
// so absence is expressed with Unset.
type TimeCode int64

// Unset marks a bound that the importer could not determine. An unset bound
// makes a track's duration effectively infinite for merge purposes: a track
// with precise bounds always beats an estimate.
const Unset TimeCode = -1

// IsSet reports whether the bound carries a value.
func (t TimeCode) IsSet() bool {
	return t >= 0
}

// String renders the time code as m:ss.mmm, or "-" when unset.
func (t TimeCode) String() string {
	if !t.IsSet() {
		return "-"
	}
	ms := int64(t)
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}

// Span returns the duration between start and end. The second return value
// is false when either bound is unset, meaning the duration is unbounded.
func Span(start, end TimeCode) (TimeCode, bool) {
	if !start.IsSet() || !end.IsSet() {
		return 0, false
	}
	return end - start, true
}
