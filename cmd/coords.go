package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"glampdata/internal/batch"
	"glampdata/internal/csvtable"
	"glampdata/internal/geo"
	"glampdata/internal/places"
	"glampdata/internal/report"
	"glampdata/internal/types"

	"github.com/spf13/cobra"
)

var coordsCmd = &cobra.Command{
	Use:   "coords",
	Short: "Compare, apply, report on and validate property coordinates",
}

var coordsOut string

var coordsCompareCmd = &cobra.Command{
	Use:   "compare CSV",
	Short: "Geocode each row and compare with the existing coordinates",
	Long: `Look up every property with Google Places and record the fetched location,
the distance to the existing coordinates and a match status. The result is
written next to the input as <name>_COORDINATES_COMPARED.csv.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		t, err := csvtable.Load(args[0])
		if err != nil {
			return err
		}
		pc := placesClient()

		run := batch.NewRun("Coordinate Comparison")
		run.Banner(out)
		stats, runErr := compareCoordinates(cmd.Context(), out, pc, t, delayOr(100*time.Millisecond))
		if stats.Total == 0 && runErr != nil {
			return runErr
		}
		dest := coordsOut
		if dest == "" {
			dest = suffixed(args[0], "_COORDINATES_COMPARED")
		}
		if err := t.Write(dest); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
		stats.Summary(out)
		fmt.Fprintf(out, "\nOutput saved to: %s (%v)\n", dest, run.Elapsed())
		return runErr
	},
}

type compareStats struct {
	Total         int
	Fetched       int
	NotFound      int
	Errors        int
	Matches       int
	Mismatches    int
	NoExisting    int
	CannotCompare int
}

func (s compareStats) Summary(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule70)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Total properties: %d\n", s.Total)
	fmt.Fprintf(w, "  ✓ Coordinates fetched: %d\n", s.Fetched)
	fmt.Fprintf(w, "  ✗ Not found: %d\n", s.NotFound)
	fmt.Fprintf(w, "  ⚠ Errors: %d\n", s.Errors)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Comparison Results:")
	fmt.Fprintf(w, "  ✓ Matches (<1km): %d\n", s.Matches)
	fmt.Fprintf(w, "  ⚠ Mismatches (≥1km): %d\n", s.Mismatches)
	fmt.Fprintf(w, "  - No existing coordinates: %d\n", s.NoExisting)
	fmt.Fprintf(w, "  ⚠ Cannot compare: %d\n", s.CannotCompare)
	fmt.Fprintln(w, rule70)
}

// coordinateColumns finds the latitude and longitude headers by substring.
func coordinateColumns(t *csvtable.Table) (lat, lon string, err error) {
	lat = t.FindColumn("lat")
	lon = t.FindColumn("long")
	if lon == "" {
		lon = t.FindColumn("lon")
	}
	if lat == "" || lon == "" {
		return "", "", fmt.Errorf("could not find latitude/longitude columns in %v", t.Header)
	}
	return lat, lon, nil
}

// compareCoordinates fills the Fetched Latitude, Fetched Longitude,
// Distance (km) and Coordinate Match columns of t.
func compareCoordinates(ctx context.Context, w io.Writer, pc *places.Client, t *csvtable.Table, delay time.Duration) (compareStats, error) {
	var stats compareStats
	latCol, lonCol, err := coordinateColumns(t)
	if err != nil {
		return stats, err
	}
	fmt.Fprintf(w, "Using columns: Latitude='%s', Longitude='%s'\n\n", latCol, lonCol)
	t.AppendColumns(types.ColFetchedLatitude, types.ColFetchedLongitude, types.ColDistanceKm, types.ColCoordinateMatch)

	total := t.Len()
	fmt.Fprintf(w, "Processing %d properties...\n\n", total)
	for i := 0; i < total; i++ {
		idx := i + 1
		stats.Total++
		p := types.FromCSV(t.Map(i))
		if p.Name == "" {
			continue
		}
		fmt.Fprintf(w, "[%d/%d] %s... ", idx, total, batch.Truncate(p.Name, 50))
		fmt.Fprintln(w, compareRow(ctx, pc, t, i, p, t.Value(i, latCol), t.Value(i, lonCol), &stats))

		if err := batch.Pace(ctx, delay, idx, total); err != nil {
			fmt.Fprintln(w, "\nInterrupted, writing the rows processed so far")
			return stats, err
		}
	}
	return stats, nil
}

func compareRow(ctx context.Context, pc *places.Client, t *csvtable.Table, i int, p types.Property, lat, lon string, stats *compareStats) string {
	found, err := pc.SearchText(ctx, places.BuildQuery(p.Name, p.City, p.State, p.Address), places.SearchLocationFields...)
	switch {
	case err != nil:
		stats.Errors++
		return fmt.Sprintf("✗ API Error: %v", err)
	case found == nil:
		stats.NotFound++
		return "✗ Not found"
	case found.Location == nil:
		stats.NotFound++
		return "✗ No coordinates"
	}

	fetched := found.Location.Point()
	t.Set(i, types.ColFetchedLatitude, geo.FormatCoord(fetched.Lat()))
	t.Set(i, types.ColFetchedLongitude, geo.FormatCoord(fetched.Lon()))
	stats.Fetched++

	if lat == "" || lon == "" {
		t.Set(i, types.ColCoordinateMatch, types.CoordNoExisting)
		stats.NoExisting++
		return "✓ Fetched (no existing)"
	}
	existing, ok := geo.ParseLatLon(lat, lon)
	if !ok {
		t.Set(i, types.ColCoordinateMatch, types.CoordCannotCompare)
		stats.CannotCompare++
		return "⚠ Cannot compare"
	}
	if !geo.Valid(existing) {
		t.Set(i, types.ColCoordinateMatch, types.CoordError)
		stats.Errors++
		return fmt.Sprintf("✗ Error: existing coordinates out of range (%s, %s)", lat, lon)
	}

	d := geo.DistanceKm(existing, fetched)
	t.Set(i, types.ColDistanceKm, fmt.Sprintf("%.3f", d))
	if d < 1.0 {
		t.Set(i, types.ColCoordinateMatch, types.CoordMatch)
		stats.Matches++
		return fmt.Sprintf("✓ Match (%.2fkm)", d)
	}
	t.Set(i, types.ColCoordinateMatch, types.CoordMismatch)
	stats.Mismatches++
	return fmt.Sprintf("⚠ Mismatch (%.2fkm)", d)
}

var applyThreshold float64

var coordsApplyCmd = &cobra.Command{
	Use:   "apply COMPARED TARGET",
	Short: "Copy fetched coordinates into the target CSV",
	Long: `Rows are matched on "Property Name|Site Name". Coordinates are replaced when
the comparison found none, or found a mismatch further than --threshold km.
The result is written to <target>_UPDATED.csv unless --out is given.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cmp, err := csvtable.Load(args[0])
		if err != nil {
			return err
		}
		target, err := csvtable.Load(args[1])
		if err != nil {
			return err
		}
		stats, err := applyCoordinates(cmp, target, applyThreshold)
		if err != nil {
			return err
		}
		dest := coordsOut
		if dest == "" {
			dest = suffixed(args[1], "_UPDATED")
		}
		if err := target.Write(dest); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}

		fmt.Fprintln(out, rule70)
		fmt.Fprintln(out, "Coordinate Update Summary:")
		fmt.Fprintf(out, "  Total properties: %d\n", stats.Total)
		fmt.Fprintf(out, "  ✓ Updated (mismatches >%gkm): %d\n", applyThreshold, stats.UpdatedMismatches)
		fmt.Fprintf(out, "  ✓ Updated (no existing): %d\n", stats.UpdatedNoExisting)
		fmt.Fprintf(out, "  ✓ Kept (matches or small differences): %d\n", stats.Kept)
		fmt.Fprintf(out, "  ✗ Not found in comparison: %d\n", stats.NotFound)
		fmt.Fprintln(out, rule70)
		fmt.Fprintf(out, "\nUpdated CSV saved to: %s\n", dest)
		return nil
	},
}

type applyStats struct {
	Total             int
	UpdatedMismatches int
	UpdatedNoExisting int
	Kept              int
	NotFound          int
}

type comparedCoord struct {
	lat, lon string
	distance float64
	status   string
}

// applyCoordinates copies fetched coordinates from cmp into target.
func applyCoordinates(cmp, target *csvtable.Table, thresholdKm float64) (applyStats, error) {
	var stats applyStats
	fetched := make(map[string]comparedCoord)
	for i := 0; i < cmp.Len(); i++ {
		c := comparedCoord{
			lat:    cmp.Value(i, types.ColFetchedLatitude),
			lon:    cmp.Value(i, types.ColFetchedLongitude),
			status: cmp.Value(i, types.ColCoordinateMatch),
		}
		if c.lat == "" || c.lon == "" {
			continue
		}
		c.distance, _ = strconv.ParseFloat(cmp.Value(i, types.ColDistanceKm), 64)
		fetched[types.FromCSV(cmp.Map(i)).Key()] = c
	}

	latCol, lonCol, err := coordinateColumns(target)
	if err != nil {
		return stats, err
	}
	for i := 0; i < target.Len(); i++ {
		stats.Total++
		c, ok := fetched[types.FromCSV(target.Map(i)).Key()]
		if !ok {
			stats.NotFound++
			continue
		}
		switch {
		case c.status == types.CoordNoExisting:
			stats.UpdatedNoExisting++
		case c.status == types.CoordMismatch && c.distance > thresholdKm:
			stats.UpdatedMismatches++
		default:
			stats.Kept++
			continue
		}
		target.Set(i, latCol, c.lat)
		target.Set(i, lonCol, c.lon)
	}
	return stats, nil
}

var (
	reportXLSX   string
	reportUpload bool
)

var coordsReportCmd = &cobra.Command{
	Use:   "report COMPARED",
	Short: "Write the coordinate comparison report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		t, err := csvtable.Load(args[0])
		if err != nil {
			return err
		}
		b := report.CoordinateBuckets(t)

		dest := coordsOut
		if dest == "" {
			dest = filepath.Join(filepath.Dir(args[0]), "COORDINATE_COMPARISON_REPORT.txt")
		}
		f, err := os.Create(dest)
		if err != nil {
			return err
		}
		b.WriteCoordinateReport(io.MultiWriter(out, f))
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report saved to: %s\n", dest)

		artifacts := []string{dest}
		if reportXLSX != "" {
			if err := report.WriteXLSX(reportXLSX, b.Sheets()...); err != nil {
				return err
			}
			fmt.Fprintf(out, "Workbook saved to: %s\n", reportXLSX)
			artifacts = append(artifacts, reportXLSX)
		}
		if reportUpload {
			return uploadArtifacts(cmd.Context(), out, batch.NewRun("coords report"), artifacts...)
		}
		return nil
	},
}

var (
	validateBoundaries string
	validateField      string
)

var coordsValidateCmd = &cobra.Command{
	Use:   "validate CSV",
	Short: "Check coordinates against the stated state or province",
	Long: `Flag rows whose coordinates are invalid or fall outside the region named in
the State column. Regions are rough lat/lon boxes unless --boundaries points at
a state boundary shapefile.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		t, err := csvtable.Load(args[0])
		if err != nil {
			return err
		}
		checker := geo.RoughBounds
		if validateBoundaries != "" {
			start := time.Now()
			b, err := geo.LoadBoundaries(validateBoundaries, validateField)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Loaded %d boundaries in %v\n\n", b.Len(), elapsed(start))
			checker = b
		}
		res, err := validateRegions(t, checker)
		if err != nil {
			return err
		}
		res.Write(out)
		return nil
	},
}

type regionIssue struct {
	Row      int
	Name     string
	State    string
	Lat, Lon string
	Located  string
	Problem  string
}

type regionResult struct {
	Checked int
	Unknown int
	Missing int
	Issues  []regionIssue
}

func (r regionResult) Write(w io.Writer) {
	fmt.Fprintln(w, rule70)
	fmt.Fprintln(w, "COORDINATE REGION CHECK")
	fmt.Fprintln(w, rule70)
	for _, is := range r.Issues {
		fmt.Fprintf(w, "✗ Row %d: %s (%s) %s, %s - %s", is.Row, is.Name, is.State, is.Lat, is.Lon, is.Problem)
		if is.Located != "" {
			fmt.Fprintf(w, ", looks like %s", is.Located)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Checked: %d\n", r.Checked)
	fmt.Fprintf(w, "  ✗ Problems: %d\n", len(r.Issues))
	fmt.Fprintf(w, "  - Missing coordinates: %d\n", r.Missing)
	fmt.Fprintf(w, "  - Unknown region: %d\n", r.Unknown)
	fmt.Fprintln(w, rule70)
}

func validateRegions(t *csvtable.Table, checker geo.RegionChecker) (regionResult, error) {
	var res regionResult
	latCol, lonCol, err := coordinateColumns(t)
	if err != nil {
		return res, err
	}
	for i := 0; i < t.Len(); i++ {
		lat, lon := t.Value(i, latCol), t.Value(i, lonCol)
		if lat == "" || lon == "" {
			res.Missing++
			continue
		}
		issue := regionIssue{Row: i + 1, Name: t.Value(i, types.ColPropertyName), State: t.Value(i, types.ColState), Lat: lat, Lon: lon}
		p, ok := geo.ParseLatLon(lat, lon)
		if !ok || !geo.Valid(p) {
			issue.Problem = "invalid coordinates"
			res.Issues = append(res.Issues, issue)
			continue
		}
		res.Checked++
		inside, known := checker.Contains(issue.State, p)
		if !known {
			res.Unknown++
			continue
		}
		if !inside {
			issue.Problem = "outside " + issue.State
			issue.Located = checker.Locate(p)
			res.Issues = append(res.Issues, issue)
		}
	}
	return res, nil
}

func init() {
	coordsCmd.PersistentFlags().StringVarP(&coordsOut, "out", "o", "", "output file")

	coordsApplyCmd.Flags().Float64Var(&applyThreshold, "threshold", 1.0, "replace mismatches further apart than this many km")

	coordsReportCmd.Flags().StringVar(&reportXLSX, "xlsx", "", "also write the buckets to this workbook")
	coordsReportCmd.Flags().BoolVar(&reportUpload, "upload", false, "upload the report files to the configured bucket")

	coordsValidateCmd.Flags().StringVar(&validateBoundaries, "boundaries", "", "state boundary shapefile (.shp)")
	coordsValidateCmd.Flags().StringVar(&validateField, "field", "STUSPS", "attribute holding the state code")

	coordsCmd.AddCommand(coordsCompareCmd, coordsApplyCmd, coordsReportCmd, coordsValidateCmd)
	rootCmd.AddCommand(coordsCmd)
}
