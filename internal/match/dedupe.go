package match

import (
	"strings"

	"glampdata/internal/csvtable"
)

// Duplicate records a row dropped by Dedupe.
type Duplicate struct {
	Row    int
	Name   string
	Result Result
}

// Confirm decides whether a review-grade match should remove its row.
type Confirm func(name string, r Result) bool

// Dedupe removes rows of t whose nameCol value matches the reference set.
// Rows with an empty name are always kept. Matches that need review are only
// removed when confirm returns true; a nil confirm accepts them. When only is
// non-nil, rows it rejects are left alone.
func Dedupe(t *csvtable.Table, nameCol string, m *Matcher, only func(row int) bool, confirm Confirm) []Duplicate {
	var dups []Duplicate
	drop := make(map[int]bool)
	for i := 0; i < t.Len(); i++ {
		if only != nil && !only(i) {
			continue
		}
		name := strings.TrimSpace(t.Get(i, nameCol))
		if name == "" {
			continue
		}
		r := m.Match(name)
		if !r.Matched {
			continue
		}
		if r.Kind.NeedsReview() && confirm != nil && !confirm(name, r) {
			continue
		}
		drop[i] = true
		dups = append(dups, Duplicate{Row: i, Name: name, Result: r})
	}
	if len(drop) > 0 {
		t.Filter(func(i int) bool { return !drop[i] })
	}
	return dups
}
