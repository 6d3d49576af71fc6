// Package report analyzes property exports and renders text and xlsx reports.
package report

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"glampdata/internal/csvtable"
	"glampdata/internal/geo"
	"glampdata/internal/types"
)

// CriticalFields must be present on every row.
var CriticalFields = []string{
	types.ColPropertyName, types.ColAddress, types.ColCity, types.ColState,
	types.ColLatitude, types.ColLongitude, types.ColURL,
}

// GoogleFields are the enrichment columns whose coverage is reported.
var GoogleFields = []string{
	types.ColGooglePhone, types.ColGoogleWebsite, types.ColGooglePrimary,
	types.ColGooglePlaceTypes, types.ColGooglePhotoCount, types.ColGoogleRating, types.ColGoogleReviews,
}

type Priority string

const (
	High   Priority = "HIGH"
	Medium Priority = "MEDIUM"
	Low    Priority = "LOW"
)

type Recommendation struct {
	Priority Priority
	Issue    string
	Action   string
	Count    int
}

// FieldCount is a per-column tally.
type FieldCount struct {
	Field string
	Count int
}

// RowIssue points at one offending row. Row is 1-based, excluding the header.
type RowIssue struct {
	Row   int
	Name  string
	Value string
}

type NameCount struct {
	Name  string
	Count int
}

// Quality is the result of AnalyzeQuality.
type Quality struct {
	TotalRows    int
	TotalColumns int

	Duplicates []NameCount
	Missing    []FieldCount

	MissingCoords int
	InvalidCoords []RowIssue
	MissingURLs   int
	InvalidURLs   []RowIssue

	GoogleCoverage []FieldCount
	InvalidPhones  []RowIssue
	UnusualStates  []string
	EmptyRows      []int

	URLMatches    int
	URLMismatches int
	GoogleOnly    int
	OriginalOnly  int

	Recommendations []Recommendation
}

var nonPhone = regexp.MustCompile(`[^\d+]`)

// ValidURL requires a scheme and a host.
func ValidURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// ValidPhone accepts at least ten digits or a leading "+".
func ValidPhone(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return len(nonPhone.ReplaceAllString(s, "")) >= 10 || strings.HasPrefix(s, "+")
}

// NormalizeURL lowercases and strips the scheme and trailing slashes so two
// spellings of the same site compare equal.
func NormalizeURL(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "http://", "")
	s = strings.ReplaceAll(s, "https://", "")
	return strings.TrimRight(s, "/")
}

func unusualState(s string) bool {
	n := utf8.RuneCountInString(s)
	if n > 2 {
		return true
	}
	if n == 2 {
		for _, r := range s {
			if !unicode.IsLetter(r) {
				return true
			}
		}
	}
	return false
}

// AnalyzeQuality runs every check over the table.
func AnalyzeQuality(t *csvtable.Table) Quality {
	q := Quality{TotalRows: t.Len(), TotalColumns: len(t.Header)}
	name := func(i int) string { return t.Value(i, types.ColPropertyName) }

	counts := map[string]int{}
	var order []string
	for i := 0; i < t.Len(); i++ {
		n := name(i)
		if n == "" {
			continue
		}
		if counts[n] == 0 {
			order = append(order, n)
		}
		counts[n]++
	}
	for _, n := range order {
		if counts[n] > 1 {
			q.Duplicates = append(q.Duplicates, NameCount{Name: n, Count: counts[n]})
		}
	}

	for _, f := range CriticalFields {
		missing := 0
		for i := 0; i < t.Len(); i++ {
			if t.Value(i, f) == "" {
				missing++
			}
		}
		q.Missing = append(q.Missing, FieldCount{Field: f, Count: missing})
	}

	for i := 0; i < t.Len(); i++ {
		lat, lon := t.Value(i, types.ColLatitude), t.Value(i, types.ColLongitude)
		switch {
		case lat == "" || lon == "":
			q.MissingCoords++
		case !geo.ValidComponent(lat) || !geo.ValidComponent(lon):
			q.InvalidCoords = append(q.InvalidCoords, RowIssue{Row: i + 1, Name: name(i), Value: lat + ", " + lon})
		}

		u := t.Value(i, types.ColURL)
		switch {
		case u == "":
			q.MissingURLs++
		case !ValidURL(u):
			q.InvalidURLs = append(q.InvalidURLs, RowIssue{Row: i + 1, Name: name(i), Value: u})
		}

		if p := t.Value(i, types.ColGooglePhone); p != "" && !ValidPhone(p) {
			q.InvalidPhones = append(q.InvalidPhones, RowIssue{Row: i + 1, Name: name(i), Value: p})
		}

		if t.EmptyRow(i) {
			q.EmptyRows = append(q.EmptyRows, i+1)
		}

		orig, goog := NormalizeURL(u), NormalizeURL(t.Value(i, types.ColGoogleWebsite))
		switch {
		case orig != "" && goog != "":
			if orig == goog {
				q.URLMatches++
			} else {
				q.URLMismatches++
			}
		case goog != "":
			q.GoogleOnly++
		case orig != "":
			q.OriginalOnly++
		}
	}

	for _, f := range GoogleFields {
		has := 0
		for i := 0; i < t.Len(); i++ {
			if t.Value(i, f) != "" {
				has++
			}
		}
		q.GoogleCoverage = append(q.GoogleCoverage, FieldCount{Field: f, Count: has})
	}

	seen := map[string]bool{}
	for i := 0; i < t.Len(); i++ {
		s := strings.ToUpper(t.Value(i, types.ColState))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		if unusualState(s) {
			q.UnusualStates = append(q.UnusualStates, s)
		}
	}

	q.Recommendations = q.recommend()
	return q
}

func (q Quality) recommend() []Recommendation {
	var recs []Recommendation
	rows := float64(q.TotalRows)
	if n := len(q.Duplicates); n > 0 {
		recs = append(recs, Recommendation{High, fmt.Sprintf("%d duplicate property names found", n),
			"Review and merge or remove duplicate entries", n})
	}
	if float64(q.MissingCoords) > rows*0.1 {
		recs = append(recs, Recommendation{High,
			fmt.Sprintf("%d rows missing coordinates (%s)", q.MissingCoords, pct(q.MissingCoords, q.TotalRows)),
			"Geocode missing addresses using Google Places API", q.MissingCoords})
	}
	if n := len(q.InvalidCoords); n > 0 {
		recs = append(recs, Recommendation{High, fmt.Sprintf("%d rows with invalid coordinates", n),
			"Fix or remove invalid coordinate values", n})
	}
	if n := len(q.InvalidURLs); n > 0 {
		recs = append(recs, Recommendation{Medium, fmt.Sprintf("%d rows with invalid URLs", n),
			"Fix or remove invalid URL values", n})
	}
	if q.URLMismatches > 0 {
		recs = append(recs, Recommendation{Low, fmt.Sprintf("%d rows where Google URL differs from original", q.URLMismatches),
			"Review and decide which URL to keep (prefer Google if verified)", q.URLMismatches})
	}
	if float64(q.GoogleOnly) > rows*0.2 {
		recs = append(recs, Recommendation{Medium, fmt.Sprintf("%d rows have Google URLs but missing original URLs", q.GoogleOnly),
			"Consider updating original URL field with Google data", q.GoogleOnly})
	}
	if n := len(q.EmptyRows); n > 0 {
		recs = append(recs, Recommendation{High, fmt.Sprintf("%d completely empty rows", n),
			"Remove empty rows", n})
	}
	return recs
}

func pct(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return strconv.FormatFloat(float64(n)/float64(total)*100, 'f', 1, 64) + "%"
}

var rule70 = strings.Repeat("=", 70)

// WriteText prints the report in the sectioned console layout.
func (q Quality) WriteText(w io.Writer) {
	fmt.Fprintln(w, rule70)
	fmt.Fprintln(w, "CSV DATA QUALITY ANALYSIS")
	fmt.Fprintln(w, rule70)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "📊 FILE OVERVIEW")
	fmt.Fprintf(w, "   Total rows: %d\n", q.TotalRows)
	fmt.Fprintf(w, "   Total columns: %d\n\n", q.TotalColumns)

	fmt.Fprintln(w, "🔍 DUPLICATE ANALYSIS")
	if len(q.Duplicates) > 0 {
		fmt.Fprintf(w, "   ⚠️  Found %d duplicate property names:\n", len(q.Duplicates))
		for _, d := range head(q.Duplicates, 10) {
			fmt.Fprintf(w, "      - %q: %d occurrences\n", d.Name, d.Count)
		}
		if len(q.Duplicates) > 10 {
			fmt.Fprintf(w, "      ... and %d more\n", len(q.Duplicates)-10)
		}
	} else {
		fmt.Fprintln(w, "   ✓ No duplicate property names found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "📋 MISSING CRITICAL DATA")
	for _, m := range q.Missing {
		status := "✓"
		if m.Count > 0 {
			status = "⚠️"
		}
		fmt.Fprintf(w, "   %s %s: %d missing (%s)\n", status, m.Field, m.Count, pct(m.Count, q.TotalRows))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "📍 COORDINATE VALIDATION")
	fmt.Fprintf(w, "   Missing coordinates: %d (%s)\n", q.MissingCoords, pct(q.MissingCoords, q.TotalRows))
	writeIssues(w, "Invalid coordinates", q.InvalidCoords, "✓ All coordinates are valid")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "🔗 URL VALIDATION")
	fmt.Fprintf(w, "   Missing URLs: %d (%s)\n", q.MissingURLs, pct(q.MissingURLs, q.TotalRows))
	writeIssues(w, "Invalid URLs", q.InvalidURLs, "✓ All URLs are valid")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "🔍 GOOGLE PLACES DATA COVERAGE")
	for _, c := range q.GoogleCoverage {
		fmt.Fprintf(w, "   %s: %d rows (%s)\n", c.Field, c.Count, pct(c.Count, q.TotalRows))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "📞 PHONE NUMBER VALIDATION")
	writeIssues(w, types.ColGooglePhone+" invalid phone numbers", q.InvalidPhones,
		"✓ "+types.ColGooglePhone+": All phone numbers are valid")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "🔄 DATA CONSISTENCY CHECKS")
	if len(q.UnusualStates) > 0 {
		fmt.Fprintf(w, "   ⚠️  Unusual state values: %v\n", head(q.UnusualStates, 10))
	}
	if len(q.EmptyRows) > 0 {
		fmt.Fprintf(w, "   ⚠️  Found %d completely empty rows: %v\n", len(q.EmptyRows), head(q.EmptyRows, 10))
	} else {
		fmt.Fprintln(w, "   ✓ No completely empty rows")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "🔗 URL CONSISTENCY (Google vs Original)")
	fmt.Fprintf(w, "   URLs match: %d\n", q.URLMatches)
	fmt.Fprintf(w, "   URLs differ: %d\n", q.URLMismatches)
	fmt.Fprintf(w, "   Google only: %d\n", q.GoogleOnly)
	fmt.Fprintf(w, "   Original only: %d\n\n", q.OriginalOnly)

	fmt.Fprintln(w, rule70)
	fmt.Fprintln(w, "📝 CLEANING RECOMMENDATIONS")
	fmt.Fprintln(w, rule70)
	fmt.Fprintln(w)
	if len(q.Recommendations) == 0 {
		fmt.Fprintln(w, "   ✓ No major issues found! Data quality looks good.")
	}
	for i, r := range q.Recommendations {
		fmt.Fprintf(w, "   %d. [%s] %s\n", i+1, r.Priority, r.Issue)
		fmt.Fprintf(w, "      Action: %s\n\n", r.Action)
	}
	fmt.Fprintln(w, rule70)
	fmt.Fprintln(w, "ANALYSIS COMPLETE")
	fmt.Fprintln(w, rule70)
}

func writeIssues(w io.Writer, label string, issues []RowIssue, ok string) {
	if len(issues) == 0 {
		fmt.Fprintf(w, "   %s\n", ok)
		return
	}
	fmt.Fprintf(w, "   ⚠️  %s: %d\n", label, len(issues))
	for _, is := range head(issues, 5) {
		fmt.Fprintf(w, "      Row %d: %q - %s\n", is.Row, is.Name, is.Value)
	}
	if len(issues) > 5 {
		fmt.Fprintf(w, "      ... and %d more\n", len(issues)-5)
	}
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// Sheets lays the analysis out for WriteXLSX.
func (q Quality) Sheets() []Sheet {
	summary := Sheet{Name: "Recommendations", Header: []string{"Priority", "Issue", "Action", "Count"}}
	for _, r := range q.Recommendations {
		summary.Rows = append(summary.Rows, []string{string(r.Priority), r.Issue, r.Action, strconv.Itoa(r.Count)})
	}
	coverage := Sheet{Name: "Coverage", Header: []string{"Field", "Kind", "Count", "Percent"}}
	for _, m := range q.Missing {
		coverage.Rows = append(coverage.Rows, []string{m.Field, "missing", strconv.Itoa(m.Count), pct(m.Count, q.TotalRows)})
	}
	for _, c := range q.GoogleCoverage {
		coverage.Rows = append(coverage.Rows, []string{c.Field, "google", strconv.Itoa(c.Count), pct(c.Count, q.TotalRows)})
	}
	dups := Sheet{Name: "Duplicates", Header: []string{"Property Name", "Occurrences"}}
	for _, d := range q.Duplicates {
		dups.Rows = append(dups.Rows, []string{d.Name, strconv.Itoa(d.Count)})
	}
	return []Sheet{
		summary,
		coverage,
		dups,
		issueSheet("Invalid Coordinates", q.InvalidCoords),
		issueSheet("Invalid URLs", q.InvalidURLs),
		issueSheet("Invalid Phones", q.InvalidPhones),
	}
}

func issueSheet(name string, issues []RowIssue) Sheet {
	s := Sheet{Name: name, Header: []string{"Row", "Property Name", "Value"}}
	for _, is := range issues {
		s.Rows = append(s.Rows, []string{strconv.Itoa(is.Row), is.Name, is.Value})
	}
	return s
}
