package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"glampdata/internal/csvtable"
	"glampdata/internal/types"
)

const (
	largeListLimit  = 50
	mediumListLimit = 30
)

// CoordRow is one row of a coordinate comparison file.
type CoordRow struct {
	Name, Site, City, State  string
	ExistingLat, ExistingLon string
	FetchedLat, FetchedLon   string
	Distance                 string
}

func (r CoordRow) distanceOrZero() float64 {
	d, err := strconv.ParseFloat(r.Distance, 64)
	if err != nil {
		return 0
	}
	return d
}

// Buckets groups compared rows by how far the existing coordinates are from
// the fetched ones.
type Buckets struct {
	Total      int
	Matches    []CoordRow
	Small      []CoordRow // < 10 km
	Medium     []CoordRow // < 100 km
	Large      []CoordRow // >= 100 km or unparseable
	NoExisting []CoordRow
	NotFound   []CoordRow
}

// CoordinateBuckets sorts the rows of a *_COORDINATES_COMPARED.csv table.
// Large and medium buckets are ordered by distance, furthest first.
func CoordinateBuckets(t *csvtable.Table) Buckets {
	b := Buckets{Total: t.Len()}
	for i := 0; i < t.Len(); i++ {
		row := CoordRow{
			Name:        t.Value(i, types.ColPropertyName),
			Site:        t.Value(i, types.ColSiteName),
			City:        t.Value(i, types.ColCity),
			State:       t.Value(i, types.ColState),
			ExistingLat: t.Value(i, types.ColLatitude),
			ExistingLon: t.Value(i, types.ColLongitude),
			FetchedLat:  t.Value(i, types.ColFetchedLatitude),
			FetchedLon:  t.Value(i, types.ColFetchedLongitude),
			Distance:    t.Value(i, types.ColDistanceKm),
		}
		switch t.Value(i, types.ColCoordinateMatch) {
		case types.CoordMatch:
			b.Matches = append(b.Matches, row)
		case types.CoordMismatch:
			d := 0.0
			if row.Distance != "" {
				var err error
				if d, err = strconv.ParseFloat(row.Distance, 64); err != nil {
					b.Large = append(b.Large, row)
					continue
				}
			}
			switch {
			case d < 10:
				b.Small = append(b.Small, row)
			case d < 100:
				b.Medium = append(b.Medium, row)
			default:
				b.Large = append(b.Large, row)
			}
		case types.CoordNoExisting:
			b.NoExisting = append(b.NoExisting, row)
		default:
			b.NotFound = append(b.NotFound, row)
		}
	}
	byDistance := func(rows []CoordRow) {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].distanceOrZero() > rows[j].distanceOrZero() })
	}
	byDistance(b.Large)
	byDistance(b.Medium)
	return b
}

var rule80 = strings.Repeat("=", 80)

// WriteCoordinateReport renders the bucket report as text.
func (b Buckets) WriteCoordinateReport(w io.Writer) {
	fmt.Fprintln(w, rule80)
	fmt.Fprintln(w, "COORDINATE COMPARISON REPORT")
	fmt.Fprintln(w, rule80)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total Properties: %d\n", b.Total)
	fmt.Fprintf(w, "✓ Matches (<1km): %d (%s)\n", len(b.Matches), pct(len(b.Matches), b.Total))
	fmt.Fprintf(w, "⚠ Small Mismatches (1-10km): %d (%s)\n", len(b.Small), pct(len(b.Small), b.Total))
	fmt.Fprintf(w, "⚠ Medium Mismatches (10-100km): %d (%s)\n", len(b.Medium), pct(len(b.Medium), b.Total))
	fmt.Fprintf(w, "⚠ Large Mismatches (>100km): %d (%s)\n", len(b.Large), pct(len(b.Large), b.Total))
	fmt.Fprintf(w, "- No Existing Coordinates: %d\n", len(b.NoExisting))
	fmt.Fprintf(w, "✗ Not Found: %d\n\n", len(b.NotFound))

	if len(b.Large) > 0 {
		section(w, "LARGE MISMATCHES (>100km) - RECOMMENDED FOR UPDATE")
		for _, r := range head(b.Large, largeListLimit) {
			fmt.Fprintf(w, "Property: %s\n", r.Name)
			fmt.Fprintf(w, "  Site: %s\n", r.Site)
			fmt.Fprintf(w, "  Location: %s, %s\n", r.City, r.State)
			fmt.Fprintf(w, "  Existing: %s, %s\n", r.ExistingLat, r.ExistingLon)
			fmt.Fprintf(w, "  Fetched: %s, %s\n", r.FetchedLat, r.FetchedLon)
			fmt.Fprintf(w, "  Distance: %s km\n\n", r.Distance)
		}
	}
	if len(b.Medium) > 0 {
		section(w, "MEDIUM MISMATCHES (10-100km) - REVIEW RECOMMENDED")
		for _, r := range head(b.Medium, mediumListLimit) {
			fmt.Fprintf(w, "%s (%s) - %s, %s - %s km\n", r.Name, r.Site, r.City, r.State, r.Distance)
		}
		fmt.Fprintln(w)
	}
	if len(b.Small) > 0 {
		section(w, "SMALL MISMATCHES (1-10km) - MINOR DIFFERENCES")
		fmt.Fprintf(w, "Total: %d properties\n", len(b.Small))
		fmt.Fprintln(w, "(These are likely acceptable differences)")
		fmt.Fprintln(w)
	}
	if len(b.NoExisting) > 0 {
		section(w, "PROPERTIES WITHOUT EXISTING COORDINATES - UPDATED")
		for _, r := range b.NoExisting {
			fmt.Fprintf(w, "%s (%s) - %s, %s\n", r.Name, r.Site, r.City, r.State)
			fmt.Fprintf(w, "  Added: %s, %s\n\n", r.FetchedLat, r.FetchedLon)
		}
	}
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w, rule80)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, rule80)
	fmt.Fprintln(w)
}

// Sheets lays the buckets out for WriteXLSX.
func (b Buckets) Sheets() []Sheet {
	header := []string{"Property Name", "Site Name", "City", "State", "Existing Lat", "Existing Lon", "Fetched Lat", "Fetched Lon", "Distance (km)"}
	sheet := func(name string, rows []CoordRow) Sheet {
		s := Sheet{Name: name, Header: header}
		for _, r := range rows {
			s.Rows = append(s.Rows, []string{r.Name, r.Site, r.City, r.State, r.ExistingLat, r.ExistingLon, r.FetchedLat, r.FetchedLon, r.Distance})
		}
		return s
	}
	summary := Sheet{Name: "Summary", Header: []string{"Bucket", "Count", "Percent"}}
	for _, c := range []struct {
		label string
		n     int
	}{
		{"Matches (<1km)", len(b.Matches)},
		{"Small (1-10km)", len(b.Small)},
		{"Medium (10-100km)", len(b.Medium)},
		{"Large (>100km)", len(b.Large)},
		{"No Existing", len(b.NoExisting)},
		{"Not Found", len(b.NotFound)},
	} {
		summary.Rows = append(summary.Rows, []string{c.label, strconv.Itoa(c.n), pct(c.n, b.Total)})
	}
	return []Sheet{
		summary,
		sheet("Large Mismatches", b.Large),
		sheet("Medium Mismatches", b.Medium),
		sheet("Small Mismatches", b.Small),
		sheet("No Existing", b.NoExisting),
	}
}
