package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"glampdata/internal/batch"
	"glampdata/internal/csvtable"
	"glampdata/internal/geo"
	"glampdata/internal/places"
	"glampdata/internal/states"
	"glampdata/internal/types"

	"github.com/spf13/cobra"
)

var statesCmd = &cobra.Command{
	Use:   "states",
	Short: "Repair State columns",
}

var (
	statesGeocode bool
	statesOut     string
)

var statesFixCmd = &cobra.Command{
	Use:   "fix CSV",
	Short: "Normalize State values and optionally geocode missing coordinates",
	Long: `Full state names become two-letter codes, zip codes in the State column are
resolved, and swapped City/State values are put back. With --geocode, rows
without coordinates are looked up by address, city, state and zip.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		t, err := csvtable.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, rule70)
		fmt.Fprintln(out, "FIXING COORDINATES AND STATE FIELDS")
		fmt.Fprintln(out, rule70)
		fmt.Fprintf(out, "\nReading CSV: %s\n  Total rows: %d\n\n", args[0], t.Len())

		var runErr error
		if statesGeocode {
			pc := placesClient()
			var n int
			n, runErr = geocodeMissing(cmd.Context(), out, pc, t, delayOr(100*time.Millisecond))
			fmt.Fprintf(out, "  ✓ Geocoded %d properties\n\n", n)
		}

		res := fixStates(t)
		fmt.Fprintln(out, "Standardizing state fields...")
		fmt.Fprintf(out, "  ✓ Fixed %d state fields\n", res.Fixed)
		if res.Swapped > 0 {
			fmt.Fprintf(out, "    (%d were city/state swaps)\n", res.Swapped)
		}
		if res.Unresolved > 0 {
			fmt.Fprintf(out, "  ⚠ %d rows still have an unrecognized state\n", res.Unresolved)
		}

		dest := outputPath(statesOut, args[0])
		if err := t.Write(dest); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
		fmt.Fprintf(out, "\nWriting fixed CSV: %s\n  ✓ Successfully wrote %d rows\n", dest, t.Len())
		return runErr
	},
}

type stateFixes struct {
	Fixed      int
	Swapped    int
	Unresolved int
}

// fixStates normalizes every non-empty State cell in place.
func fixStates(t *csvtable.Table) stateFixes {
	var res stateFixes
	for i := 0; i < t.Len(); i++ {
		state := t.Value(i, types.ColState)
		if state == "" {
			continue
		}
		city := t.Value(i, types.ColCity)
		r := states.Normalize(state, city, t.Value(i, types.ColZipCode))
		if !states.IsCode(r.State) {
			res.Unresolved++
		}
		if !r.Changed(state, city) {
			continue
		}
		t.Set(i, types.ColState, r.State)
		if r.Swapped {
			t.Set(i, types.ColCity, r.City)
			res.Swapped++
		}
		res.Fixed++
	}
	return res
}

// geocodeMissing fills Latitude and Longitude for rows that lack either.
func geocodeMissing(ctx context.Context, w io.Writer, pc *places.Client, t *csvtable.Table, delay time.Duration) (int, error) {
	var missing []int
	for i := 0; i < t.Len(); i++ {
		if t.Value(i, types.ColLatitude) == "" || t.Value(i, types.ColLongitude) == "" {
			missing = append(missing, i)
		}
	}
	fmt.Fprintf(w, "📍 Missing coordinates: %d rows\n", len(missing))
	if len(missing) == 0 {
		return 0, nil
	}
	t.AppendColumns(types.ColLatitude, types.ColLongitude)

	fmt.Fprintln(w, "Geocoding missing coordinates...")
	geocoded := 0
	for n, i := range missing {
		p := types.FromCSV(t.Map(i))
		fmt.Fprintf(w, "  [%d/%d] %s... ", n+1, len(missing), p.Name)
		found, err := pc.SearchText(ctx, places.BuildQuery(p.Address, p.City, p.State, p.ZipCode), places.SearchLocationFields...)
		switch {
		case err != nil:
			fmt.Fprintf(w, "⚠ Geocoding error: %v\n", err)
		case found == nil || found.Location == nil:
			fmt.Fprintln(w, "✗ Not found")
		default:
			t.Set(i, types.ColLatitude, geo.FormatCoord(found.Location.Latitude))
			t.Set(i, types.ColLongitude, geo.FormatCoord(found.Location.Longitude))
			geocoded++
			fmt.Fprintf(w, "✓ (%.6f, %.6f)\n", found.Location.Latitude, found.Location.Longitude)
		}
		if err := batch.Pace(ctx, delay, n+1, len(missing)); err != nil {
			return geocoded, err
		}
	}
	return geocoded, nil
}

func init() {
	statesFixCmd.Flags().BoolVar(&statesGeocode, "geocode", false, "look up missing coordinates with Google Places")
	statesFixCmd.Flags().StringVarP(&statesOut, "out", "o", "", "output CSV (default: rewrite in place)")
	statesCmd.AddCommand(statesFixCmd)
	rootCmd.AddCommand(statesCmd)
}
