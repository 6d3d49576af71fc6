package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"glampdata/internal/batch"
	"glampdata/internal/csvtable"
	"glampdata/internal/places"
	"glampdata/internal/report"
	"glampdata/internal/supabase"
	"glampdata/internal/types"

	"github.com/spf13/cobra"
)

var urlsCmd = &cobra.Command{
	Use:   "urls",
	Short: "Repair and fill property website URLs",
}

var urlsOut string

var urlsFixCmd = &cobra.Command{
	Use:   "fix CSV",
	Short: "Replace invalid Url values with the Google Website URI",
	Long: `An invalid Url is replaced by the same row's Google Website URI, then by any
valid Google Website URI seen for the same property name, and is blanked when
neither exists. Empty Url cells are filled from the row's Google Website URI.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		t, err := csvtable.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, rule70)
		fmt.Fprintln(out, "FIXING INVALID URLs")
		fmt.Fprintln(out, rule70)
		fmt.Fprintf(out, "\nReading CSV: %s\n  Total rows: %d\n\n", args[0], t.Len())

		res := fixURLs(t)
		for _, f := range head(res.Log, 20) {
			fmt.Fprintln(out, f)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, rule70)
		fmt.Fprintln(out, "SUMMARY")
		fmt.Fprintln(out, rule70)
		fmt.Fprintf(out, "  Invalid URLs found: %d\n", res.Invalid)
		fmt.Fprintf(out, "  Fixed with Google URI: %d\n", res.Fixed)
		fmt.Fprintf(out, "    - From same row: %d\n", res.FromRow)
		fmt.Fprintf(out, "    - From property lookup: %d\n", res.FromLookup)
		fmt.Fprintf(out, "  No replacement available: %d\n", res.Blanked)

		dest := outputPath(urlsOut, args[0])
		if err := t.Write(dest); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
		fmt.Fprintf(out, "\nWriting fixed CSV: %s\n  ✓ Successfully wrote %d rows\n", dest, t.Len())
		return nil
	},
}

type urlFixes struct {
	Invalid    int
	Fixed      int
	FromRow    int
	FromLookup int
	Blanked    int
	Log        []string
}

func fixURLs(t *csvtable.Table) urlFixes {
	var res urlFixes
	byName := make(map[string]string)
	for i := 0; i < t.Len(); i++ {
		name, uri := t.Value(i, types.ColPropertyName), t.Value(i, types.ColGoogleWebsite)
		if _, seen := byName[name]; name != "" && !seen && report.ValidURL(uri) {
			byName[name] = uri
		}
	}

	for i := 0; i < t.Len(); i++ {
		url := t.Value(i, types.ColURL)
		uri := t.Value(i, types.ColGoogleWebsite)
		name := t.Value(i, types.ColPropertyName)
		switch {
		case url != "" && !report.ValidURL(url):
			res.Invalid++
			replacement, source := "", ""
			if report.ValidURL(uri) {
				replacement, source = uri, "same row"
				res.FromRow++
			} else if u, ok := byName[name]; ok {
				replacement, source = u, "property lookup"
				res.FromLookup++
			}
			if replacement == "" {
				t.Set(i, types.ColURL, "")
				res.Blanked++
				res.Log = append(res.Log, fmt.Sprintf("  ⚠ No replacement for: %s (%q)", batch.Truncate(name, 50), batch.Truncate(url, 60)))
				continue
			}
			t.Set(i, types.ColURL, replacement)
			res.Fixed++
			res.Log = append(res.Log, fmt.Sprintf("  [%d] %s: %q -> %q (%s)", res.Fixed, batch.Truncate(name, 50), batch.Truncate(url, 60), replacement, source))
		case url == "" && report.ValidURL(uri):
			t.Set(i, types.ColURL, uri)
			res.Fixed++
			res.FromRow++
			res.Log = append(res.Log, fmt.Sprintf("  [%d] %s: filled empty URL with %q", res.Fixed, batch.Truncate(name, 50), uri))
		}
	}
	return res
}

var urlsFillCmd = &cobra.Command{
	Use:   "fill-missing",
	Short: "Fill empty url values in the table",
	Long: `Step 1 copies google_website_uri into url where only the former is set.
Step 2 looks up the remaining properties with Google Places and stores the
website in both url and google_website_uri.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		pc := placesClient()
		store, done := openStore(ctx, out, true)
		defer done()

		run := batch.NewRun("Add Missing Websites from Google Places API")
		run.Banner(out)
		res, err := fillMissingURLs(ctx, out, store, pc, tableFlag, delayOr(150*time.Millisecond))

		fmt.Fprintln(out)
		fmt.Fprintln(out, rule70)
		fmt.Fprintln(out, "SUMMARY")
		fmt.Fprintln(out, rule70)
		fmt.Fprintf(out, "  ✓ Updated from google_website_uri: %d properties\n", res.FromGoogleURI)
		fmt.Fprintf(out, "  ✓ Updated from Google Places API: %d properties\n", res.FromAPI)
		fmt.Fprintf(out, "  ✗ Not found: %d properties\n", res.NotFound)
		fmt.Fprintf(out, "  ⚠ Errors: %d properties\n", res.Errors)
		fmt.Fprintf(out, "  Total processed: %d properties\n", res.Total)
		fmt.Fprintln(out, rule70)
		return err
	},
}

type urlFill struct {
	Total         int
	FromGoogleURI int
	FromAPI       int
	NotFound      int
	Errors        int
}

func fillMissingURLs(ctx context.Context, w io.Writer, store propertyStore, pc *places.Client, table string, delay time.Duration) (urlFill, error) {
	var res urlFill
	fmt.Fprintln(w, "Fetching properties missing website data...")
	rows, err := store.Select(ctx, table, "id,property_name,city,state,address,url,google_website_uri", 0)
	if err != nil {
		return res, fmt.Errorf("fetch properties: %w", err)
	}
	var copyURI, lookup []supabase.Row
	for _, r := range rows {
		if r.Has(types.FieldURL) {
			continue
		}
		if r.Has(types.FieldGoogleWebsiteURI) {
			copyURI = append(copyURI, r)
		} else {
			lookup = append(lookup, r)
		}
	}
	lookup = limitRows(lookup, limitFlag)
	res.Total = len(copyURI) + len(lookup)
	fmt.Fprintf(w, "\nFound %d properties with google_website_uri but not url\n", len(copyURI))
	fmt.Fprintf(w, "Found %d properties completely missing website\n", len(lookup))
	fmt.Fprintf(w, "Total to process: %d\n\n", res.Total)

	fmt.Fprintln(w, "Step 1: Updating properties with google_website_uri but missing url...")
	for i, r := range copyURI {
		p := types.FromFields(r)
		if p.Name == "" {
			continue
		}
		fmt.Fprintf(w, "[%d/%d] %s... ", i+1, len(copyURI), batch.Truncate(p.Name, 50))
		if _, err := store.Update(ctx, table, p.ID, map[string]any{types.FieldURL: p.GoogleWebsiteURI}); err != nil {
			res.Errors++
			fmt.Fprintf(w, "✗ %s\n", updateError(err))
		} else {
			res.FromGoogleURI++
			fmt.Fprintln(w, "✓ Updated from google_website_uri")
		}
		if err := batch.Pace(ctx, 50*time.Millisecond, i+1, len(copyURI)); err != nil {
			return res, err
		}
	}

	fmt.Fprintln(w, "\nStep 2: Fetching missing websites from Google Places API...")
	for i, r := range lookup {
		p := types.FromFields(r)
		if p.Name == "" {
			continue
		}
		fmt.Fprintf(w, "[%d/%d] %s... ", i+1, len(lookup), batch.Truncate(p.Name, 50))
		website, status, msg := lookupWebsite(ctx, pc, p)
		switch status {
		case batch.NotFound:
			res.NotFound++
			fmt.Fprintln(w, "✗ "+msg)
		case batch.Error:
			res.Errors++
			fmt.Fprintln(w, "⚠ "+msg)
		default:
			fields := map[string]any{types.FieldURL: website, types.FieldGoogleWebsiteURI: website}
			if _, err := store.Update(ctx, table, p.ID, fields); err != nil {
				res.Errors++
				fmt.Fprintf(w, "✗ %s\n", updateError(err))
			} else {
				res.FromAPI++
				fmt.Fprintf(w, "✓ Added: %s...\n", batch.Truncate(website, 50))
			}
		}
		if err := batch.Pace(ctx, delay, i+1, len(lookup)); err != nil {
			return res, err
		}
	}
	return res, nil
}

func lookupWebsite(ctx context.Context, pc *places.Client, p types.Property) (string, batch.Status, string) {
	found, err := pc.SearchText(ctx, places.BuildQuery(p.Name, p.City, p.State, p.Address), places.SearchIDFields...)
	if err != nil {
		return "", batch.Error, fmt.Sprintf("Search error: %v", err)
	}
	if found == nil || found.ID == "" {
		return "", batch.NotFound, "Not found in Google Places"
	}
	d, err := pc.Details(ctx, found.ID, places.WebsiteDetailFields...)
	if err != nil {
		return "", batch.Error, fmt.Sprintf("Details error: %v", err)
	}
	if d == nil || d.WebsiteURI == "" {
		return "", batch.NotFound, "No website in Google Places"
	}
	return d.WebsiteURI, batch.Updated, ""
}

func init() {
	urlsFixCmd.Flags().StringVarP(&urlsOut, "out", "o", "", "output CSV (default: rewrite in place)")
	urlsCmd.AddCommand(urlsFixCmd, urlsFillCmd)
	rootCmd.AddCommand(urlsCmd)
}
