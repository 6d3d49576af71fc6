package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"glampdata/internal/batch"
	"glampdata/internal/config"
	"glampdata/internal/csvtable"
	"glampdata/internal/places"
	"glampdata/internal/supabase"
	"glampdata/internal/types"

	"github.com/spf13/cobra"
)

type enrichOptions struct {
	Table        string
	Limit        int
	Delay        time.Duration
	SkipExisting bool
}

var (
	enrichUpdateAll    bool
	enrichSkipExisting bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fill google_* columns from Google Places details",
	Long: `For each property in the table, find the place with a text search on
name, city, state and address, fetch its details and PATCH the google_*
columns. Values Google does not return are left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		pc := placesClient()
		store, done := openStore(ctx, out, true)
		defer done()

		run := batch.NewRun("Google Places Extended Enrichment")
		run.Banner(out)
		fmt.Fprintf(out, "API Key: %s\n", config.MaskKey(cfg.GoogleAPIKey))

		opts := enrichOptions{
			Table:        tableFlag,
			Limit:        limitFlag,
			Delay:        delayOr(150 * time.Millisecond),
			SkipExisting: enrichSkipExisting && !enrichUpdateAll,
		}
		tally, err := enrichTable(ctx, out, store, pc, opts)
		tally.Summary(out, "properties")
		fmt.Fprintf(out, "Finished in %v\n", run.Elapsed())
		return err
	},
}

// enrichTable runs the search, details and update loop over the table.
func enrichTable(ctx context.Context, w io.Writer, store propertyStore, pc *places.Client, opts enrichOptions) (batch.Tally, error) {
	var tally batch.Tally

	columns := "id,property_name,city,state,address"
	if opts.SkipExisting {
		columns += ",google_phone_number,google_website_uri"
	}
	fmt.Fprintln(w, "Fetching properties...")
	rows, err := store.Select(ctx, opts.Table, columns, selectLimit(opts.Limit, opts.SkipExisting))
	if err != nil {
		return tally, fmt.Errorf("fetch properties: %w", err)
	}
	if opts.SkipExisting {
		rows = filterRows(rows, func(r supabase.Row) bool {
			return !r.Has(types.FieldGooglePhone) && !r.Has(types.FieldGoogleWebsiteURI)
		})
		rows = limitRows(rows, opts.Limit)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "No properties found that need Google data")
		return tally, nil
	}

	total := len(rows)
	fmt.Fprintf(w, "Processing %d properties...\n\n", total)
	for i, row := range rows {
		idx := i + 1
		p := types.FromFields(row)
		if p.Name == "" {
			tally.Add(batch.Skipped)
			continue
		}
		fmt.Fprintf(w, "[%d/%d] %s... ", idx, total, batch.Truncate(p.Name, 50))
		status, msg := enrichOne(ctx, store, pc, opts.Table, p)
		tally.Record(w, status, msg)

		if err := batch.Pace(ctx, opts.Delay, idx, total); err != nil {
			fmt.Fprintln(w, "\nInterrupted")
			return tally, err
		}
	}
	return tally, nil
}

func enrichOne(ctx context.Context, store propertyStore, pc *places.Client, table string, p types.Property) (batch.Status, string) {
	found, err := pc.SearchText(ctx, places.BuildQuery(p.Name, p.City, p.State, p.Address), places.SearchIDFields...)
	if err != nil {
		return batch.Error, fmt.Sprintf("Search error: %v", err)
	}
	if found == nil || found.ID == "" {
		return batch.NotFound, "Not found"
	}
	details, err := pc.Details(ctx, found.ID, places.ExtendedFields...)
	if err != nil || details == nil {
		return batch.Failed, "Error fetching details"
	}
	fields := details.GoogleColumns()
	if len(fields) == 0 {
		return batch.Skipped, "No Google data returned"
	}
	if _, err := store.Update(ctx, table, p.ID, fields); err != nil {
		return batch.Failed, updateError(err)
	}
	return batch.Updated, "Updated"
}

var (
	ratingsSkipExisting bool
	ratingsUpdateAll    bool
	ratingsCSV          string
	ratingsOut          string
)

var ratingsCmd = &cobra.Command{
	Use:   "ratings",
	Short: "Fill Google rating and review count",
	Long: `Look up each property's Google rating and review count and store them in
google_rating and google_user_rating_total of sage-glamping-data. With --csv the
Google Rating and Google Review Count columns of a CSV file are filled instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		pc := placesClient()

		run := batch.NewRun("Google Ratings")
		run.Banner(out)
		fmt.Fprintf(out, "API Key: %s\n", config.MaskKey(cfg.GoogleAPIKey))
		delay := delayOr(100 * time.Millisecond)
		skip := ratingsSkipExisting && !ratingsUpdateAll

		var (
			tally batch.Tally
			err   error
		)
		if ratingsCSV != "" {
			tally, err = ratingsFile(ctx, out, pc, ratingsCSV, outputPath(ratingsOut, ratingsCSV), delay, skip)
		} else {
			store, done := openStore(ctx, out, true)
			defer done()
			opts := enrichOptions{
				Table:        tableOr(cmd, types.TableSageData),
				Limit:        limitFlag,
				Delay:        delay,
				SkipExisting: skip,
			}
			tally, err = ratingsTable(ctx, out, store, pc, opts)
		}
		tally.Summary(out, "properties")
		fmt.Fprintf(out, "Finished in %v\n", run.Elapsed())
		return err
	},
}

type rating struct {
	Stars   *float64
	Reviews *int
}

func (r rating) String() string {
	stars, reviews := "N/A", "N/A"
	if r.Stars != nil {
		stars = fmt.Sprintf("%.1f", *r.Stars)
	}
	if r.Reviews != nil {
		reviews = thousands(*r.Reviews)
	}
	return fmt.Sprintf("%s stars, %s reviews", stars, reviews)
}

// lookupRating searches with the rating mask and falls back to place details
// when the search result has no rating.
func lookupRating(ctx context.Context, pc *places.Client, p types.Property) (rating, batch.Status, string) {
	found, err := pc.SearchText(ctx, places.BuildQuery(p.Name, p.City, p.State, p.Address), places.SearchRatingFields...)
	if err != nil {
		return rating{}, batch.Error, fmt.Sprintf("Search error: %v", err)
	}
	if found == nil || found.ID == "" {
		return rating{}, batch.NotFound, "Not found"
	}
	r := rating{Stars: found.Rating, Reviews: found.UserRatingCount}
	if r.Stars == nil {
		if d, err := pc.Details(ctx, found.ID, places.RatingDetailFields...); err == nil && d != nil {
			r.Stars = d.Rating
			if d.UserRatingCount != nil {
				r.Reviews = d.UserRatingCount
			}
		}
	}
	if r.Stars == nil {
		return r, batch.NotFound, "No rating found"
	}
	return r, batch.Updated, ""
}

func ratingsTable(ctx context.Context, w io.Writer, store propertyStore, pc *places.Client, opts enrichOptions) (batch.Tally, error) {
	var tally batch.Tally

	fmt.Fprintln(w, "Fetching properties...")
	rows, err := store.Select(ctx, opts.Table, "id,property_name,city,state,address,google_rating,google_user_rating_total",
		selectLimit(opts.Limit, opts.SkipExisting))
	if err != nil {
		return tally, fmt.Errorf("fetch properties: %w", err)
	}
	if opts.SkipExisting {
		rows = filterRows(rows, func(r supabase.Row) bool {
			return !r.Has(types.FieldGoogleRating) && !r.Has(types.FieldGoogleRatingsN)
		})
		rows = limitRows(rows, opts.Limit)
	}
	total := len(rows)
	if total == 0 {
		fmt.Fprintln(w, "No properties to update.")
		return tally, nil
	}
	fmt.Fprintf(w, "Found %d properties to process\n\n", total)

	for i, row := range rows {
		idx := i + 1
		p := types.FromFields(row)
		if p.Name == "" {
			tally.Add(batch.Skipped)
			fmt.Fprintf(w, "[%d/%d] - Skipping: No property name (ID: %d)\n", idx, total, p.ID)
			continue
		}
		fmt.Fprintf(w, "[%d/%d] Searching: %s, %s, %s... ", idx, total, p.Name, p.City, p.State)

		r, status, msg := lookupRating(ctx, pc, p)
		if status == batch.Updated {
			fields := map[string]any{types.FieldGoogleRating: *r.Stars}
			if r.Reviews != nil {
				fields[types.FieldGoogleRatingsN] = *r.Reviews
			}
			if _, err := store.Update(ctx, opts.Table, p.ID, fields); err != nil {
				status, msg = batch.Failed, updateError(err)
			} else {
				msg = "Updated: " + r.String()
			}
		}
		tally.Record(w, status, msg)

		if err := batch.Pace(ctx, opts.Delay, idx, total); err != nil {
			fmt.Fprintln(w, "\nInterrupted")
			return tally, err
		}
	}
	return tally, nil
}

// ratingsFile fills the rating columns of a CSV export, adding them after Url
// when absent.
func ratingsFile(ctx context.Context, w io.Writer, pc *places.Client, in, out string, delay time.Duration, skipExisting bool) (batch.Tally, error) {
	var tally batch.Tally
	t, err := csvtable.Load(in)
	if err != nil {
		return tally, err
	}
	t.InsertColumns(types.ColURL, types.ColGoogleRating, types.ColGoogleReviews)

	// repeated names hit the search cache
	total := t.Len()
	fmt.Fprintf(w, "Processing %d rows from %s\n\n", total, in)
	var runErr error
	for i := 0; i < total; i++ {
		idx := i + 1
		p := types.FromCSV(t.Map(i))
		if p.Name == "" || (skipExisting && p.GoogleRating != "") {
			tally.Add(batch.Skipped)
			continue
		}
		fmt.Fprintf(w, "[%d/%d] %s... ", idx, total, batch.Truncate(p.Name, 50))
		r, status, msg := lookupRating(ctx, pc, p)
		if status == batch.Updated {
			t.Set(i, types.ColGoogleRating, strconv.FormatFloat(*r.Stars, 'f', -1, 64))
			if r.Reviews != nil {
				t.Set(i, types.ColGoogleReviews, strconv.Itoa(*r.Reviews))
			}
			msg = r.String()
		}
		tally.Record(w, status, msg)

		if runErr = batch.Pace(ctx, delay, idx, total); runErr != nil {
			fmt.Fprintln(w, "\nInterrupted, writing the rows processed so far")
			break
		}
	}
	if err := t.Write(out); err != nil {
		return tally, fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(w, "\nWrote %d rows to %s\n", t.Len(), out)
	return tally, runErr
}

func selectLimit(limit int, skipExisting bool) int {
	if skipExisting {
		return 0
	}
	return limit
}

func filterRows(rows []supabase.Row, keep func(supabase.Row) bool) []supabase.Row {
	var out []supabase.Row
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func limitRows(rows []supabase.Row, limit int) []supabase.Row {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

// thousands formats n with comma separators.
func thousands(n int) string {
	s := strconv.Itoa(n)
	neg := n < 0
	if neg {
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "-" + s
	}
	return s
}

func init() {
	enrichCmd.Flags().BoolVar(&enrichUpdateAll, "update-all", false, "update every property, overwriting existing Google data")
	enrichCmd.Flags().BoolVar(&enrichSkipExisting, "skip-existing", false, "skip properties that already have a Google phone number or website")
	enrichCmd.MarkFlagsMutuallyExclusive("update-all", "skip-existing")
	rootCmd.AddCommand(enrichCmd)

	ratingsCmd.Flags().BoolVar(&ratingsSkipExisting, "skip-existing", true, "skip properties that already have a rating")
	ratingsCmd.Flags().BoolVar(&ratingsUpdateAll, "update-all", false, "refresh every property (same as --skip-existing=false)")
	ratingsCmd.Flags().StringVar(&ratingsCSV, "csv", "", "fill the rating columns of this CSV instead of the table")
	ratingsCmd.Flags().StringVarP(&ratingsOut, "out", "o", "", "output CSV (default: rewrite --csv in place)")
	rootCmd.AddCommand(ratingsCmd)
}
