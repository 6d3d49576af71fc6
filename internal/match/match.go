// Package match decides whether two property names refer to the same place.
package match

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Brands whose listings are named "<brand> <location>".
var Brands = []string{
	"postcard cabins",
	"huttopia",
	"under canvas",
	"glamping.com",
	"field mag",
	"us news travel",
}

var parenthetical = regexp.MustCompile(`\([^)]*\)`)

// Normalize lowercases the name, turns dashes into spaces, drops parenthetical
// content such as "(CA)" and collapses whitespace.
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "-", " ")
	s = parenthetical.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// StripBrand splits a normalized name into its brand prefix and the remaining
// location. Names without a known brand return an empty brand.
func StripBrand(normalized string) (brand, location string) {
	for _, b := range Brands {
		if strings.HasPrefix(normalized, b) {
			rest := strings.Trim(normalized[len(b):], " ,:|")
			return b, rest
		}
	}
	return "", normalized
}

// Kind says which rule produced a match.
type Kind int

const (
	KindNone Kind = iota
	KindExact
	KindLocation
	KindContains
	KindSimilar
)

func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindLocation:
		return "location"
	case KindContains:
		return "contains"
	case KindSimilar:
		return "similar"
	}
	return "none"
}

// NeedsReview reports whether the rule is loose enough that a person should
// confirm it before a row is dropped.
func (k Kind) NeedsReview() bool {
	return k == KindContains || k == KindSimilar
}

// Result is the best match found for a name.
type Result struct {
	Matched   bool
	Kind      Kind
	Candidate string
	Score     float64
}

type entry struct {
	original   string
	normalized string
	brand      string
	location   string
}

// DefaultSimilarity is the Levenshtein ratio above which two names are
// considered the same when no stricter rule applies.
const DefaultSimilarity = 0.92

// Matcher holds a reference set of names.
type Matcher struct {
	// Similarity is the minimum ratio for KindSimilar. Zero disables it.
	Similarity float64

	entries []entry
	exact   map[string]int
}

// NewMatcher indexes the reference names. Empty names are ignored.
func NewMatcher(names []string) *Matcher {
	m := &Matcher{Similarity: DefaultSimilarity, exact: make(map[string]int)}
	for _, n := range names {
		m.Add(n)
	}
	return m
}

// Add indexes one more reference name.
func (m *Matcher) Add(name string) {
	norm := Normalize(name)
	if norm == "" {
		return
	}
	if _, ok := m.exact[norm]; ok {
		return
	}
	brand, loc := StripBrand(norm)
	m.exact[norm] = len(m.entries)
	m.entries = append(m.entries, entry{original: name, normalized: norm, brand: brand, location: loc})
}

// Len returns the number of distinct reference names.
func (m *Matcher) Len() int { return len(m.entries) }

// Match returns the strongest match for name. Rules are tried in order: exact,
// brand-stripped location, location containment, similarity. Within a rule the highest
// score wins and ties go to the earliest reference name.
func (m *Matcher) Match(name string) Result {
	norm := Normalize(name)
	if norm == "" {
		return Result{}
	}
	if i, ok := m.exact[norm]; ok {
		return Result{Matched: true, Kind: KindExact, Candidate: m.entries[i].original, Score: 1}
	}

	brand, loc := StripBrand(norm)
	if len(loc) > 3 {
		for _, e := range m.entries {
			if (brand != "" || e.brand != "") && e.location == loc {
				return Result{Matched: true, Kind: KindLocation, Candidate: e.original, Score: 1}
			}
		}
	}

	// Containment compares locations so "Postcard Cabins Shenandoah" finds
	// "Shenandoah North".
	best := Result{}
	for _, e := range m.entries {
		if len(loc) <= 5 || len(e.location) <= 5 {
			continue
		}
		if strings.Contains(loc, e.location) || strings.Contains(e.location, loc) {
			score := ratio(loc, e.location)
			if !best.Matched || score > best.Score {
				best = Result{Matched: true, Kind: KindContains, Candidate: e.original, Score: score}
			}
		}
	}
	if best.Matched {
		return best
	}

	if m.Similarity <= 0 {
		return Result{}
	}
	for _, e := range m.entries {
		score := ratio(norm, e.normalized)
		if score >= m.Similarity && score > best.Score {
			best = Result{Matched: true, Kind: KindSimilar, Candidate: e.original, Score: score}
		}
	}
	return best
}

// Similarity returns the normalized Levenshtein ratio of two names in [0, 1].
func Similarity(a, b string) float64 {
	return ratio(Normalize(a), Normalize(b))
}

func ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := len([]rune(a)), len([]rune(b))
	longest := ra
	if rb > longest {
		longest = rb
	}
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}
