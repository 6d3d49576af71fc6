package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"glampdata/internal/csvtable"
	"glampdata/internal/supabase"
	"glampdata/internal/types"

	"github.com/spf13/cobra"
)

type googleKind int

const (
	gText googleKind = iota
	gBool
	gTypes
	gPhotoCount
	gPhotos
)

// googleColumn maps one combined-CSV column onto its table field.
type googleColumn struct {
	Column string
	Field  string
	Kind   googleKind
}

var combineColumns = []googleColumn{
	{"Google Phone Number", "google_phone_number", gText},
	{"Google Website URI", "google_website_uri", gText},
	{"Google Dine In", "google_dine_in", gBool},
	{"Google Takeout", "google_takeout", gBool},
	{"Google Delivery", "google_delivery", gBool},
	{"Google Serves Breakfast", "google_serves_breakfast", gBool},
	{"Google Serves Lunch", "google_serves_lunch", gBool},
	{"Google Serves Dinner", "google_serves_dinner", gBool},
	{"Google Serves Brunch", "google_serves_brunch", gBool},
	{"Google Outdoor Seating", "google_outdoor_seating", gBool},
	{"Google Live Music", "google_live_music", gBool},
	{"Google Menu URI", "google_menu_uri", gText},
	{"Google Place Types", "google_place_types", gTypes},
	{"Google Primary Type", "google_primary_type", gText},
	{"Google Primary Type Display Name", "google_primary_type_display_name", gText},
	{"Google Photos Count", "google_photos", gPhotoCount},
	{"Google Photos", "google_photos", gPhotos},
	{"Google Icon URI", "google_icon_uri", gText},
	{"Google Icon Background Color", "google_icon_background_color", gText},
	{"Google Reservable", "google_reservable", gBool},
}

// combineSelect is the select list for the Google lookup.
func combineSelect() string {
	fields := []string{types.FieldID, types.FieldPropertyName}
	seen := map[string]bool{}
	for _, c := range combineColumns {
		if !seen[c.Field] {
			seen[c.Field] = true
			fields = append(fields, c.Field)
		}
	}
	return strings.Join(fields, ",")
}

var combineCmd = &cobra.Command{
	Use:   "combine OUT CSV...",
	Short: "Concatenate exports and append Google columns from the table",
	Long: `Rows of every CSV are concatenated under the union of their headers. Each row
then gets the Google columns of the table row with the same Property Name.
The table defaults to sage-glamping-data.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		dest := args[0]

		fmt.Fprintln(out, rule70)
		fmt.Fprintln(out, "Combining CSV Files with Google Places Data")
		fmt.Fprintln(out, rule70)
		fmt.Fprintln(out, "\nReading CSV files...")
		var tables []*csvtable.Table
		for _, p := range args[1:] {
			t, err := csvtable.Load(p)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  Read %d rows from %s\n", t.Len(), filepath.Base(p))
			tables = append(tables, t)
		}

		store, done := openStore(ctx, out, false)
		defer done()
		table := tableOr(cmd, types.TableSageData)
		fmt.Fprintf(out, "Fetching Google Places data from %s...\n", table)
		rows, err := store.Select(ctx, table, combineSelect(), 0)
		if err != nil {
			return fmt.Errorf("fetch google data: %w", err)
		}
		lookup := buildGoogleLookup(rows)
		fmt.Fprintf(out, "  Fetched %d rows, %d unique properties\n\n", len(rows), len(lookup))

		combined, matched := combineTables(tables, lookup)
		fmt.Fprintf(out, "  Matched %d properties with Google data\n\n", matched)

		if dir := filepath.Dir(dest); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := combined.Write(dest); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
		writeCombineSummary(out, dest, combined)
		return nil
	},
}

func writeCombineSummary(w io.Writer, dest string, t *csvtable.Table) {
	google := 0
	for _, h := range t.Header {
		if strings.HasPrefix(h, "Google ") {
			google++
		}
	}
	fmt.Fprintf(w, "Writing combined CSV to: %s\n", dest)
	fmt.Fprintf(w, "  ✓ Successfully wrote %d rows\n", t.Len())
	fmt.Fprintf(w, "  ✓ Total columns: %d\n", len(t.Header))
	fmt.Fprintf(w, "  ✓ Google columns added: %d\n", google)
}

// buildGoogleLookup indexes rows by exact property name. When a name repeats
// the row with more non-nil google_* values wins.
func buildGoogleLookup(rows []supabase.Row) map[string]supabase.Row {
	lookup := make(map[string]supabase.Row)
	for _, r := range rows {
		name := r.String(types.FieldPropertyName)
		if name == "" {
			continue
		}
		if prev, ok := lookup[name]; ok && googleCount(r) <= googleCount(prev) {
			continue
		}
		lookup[name] = r
	}
	return lookup
}

func googleCount(r supabase.Row) int {
	n := 0
	for k, v := range r {
		if strings.HasPrefix(k, "google_") && v != nil {
			n++
		}
	}
	return n
}

// combineTables concatenates the tables under one header: every non-Google
// column sorted, then every Google column sorted.
func combineTables(tables []*csvtable.Table, lookup map[string]supabase.Row) (*csvtable.Table, int) {
	cols := make(map[string]bool)
	for _, t := range tables {
		for _, h := range t.Header {
			cols[h] = true
		}
	}
	for _, c := range combineColumns {
		cols[c.Column] = true
	}
	var plain, google []string
	for c := range cols {
		if strings.HasPrefix(c, "Google ") {
			google = append(google, c)
		} else {
			plain = append(plain, c)
		}
	}
	sort.Strings(plain)
	sort.Strings(google)

	out := csvtable.New(append(plain, google...))
	matched := 0
	for _, t := range tables {
		for i := 0; i < t.Len(); i++ {
			rec := t.Map(i)
			if g, ok := lookup[strings.TrimSpace(rec[types.ColPropertyName])]; ok {
				matched++
				for _, c := range combineColumns {
					rec[c.Column] = googleValue(g, c)
				}
			}
			out.Append(rec)
		}
	}
	return out, matched
}

func googleValue(r supabase.Row, c googleColumn) string {
	v := r[c.Field]
	switch c.Kind {
	case gBool:
		if b, ok := v.(bool); ok {
			if b {
				return "Yes"
			}
			return "No"
		}
		return ""
	case gTypes:
		list := jsonList(v)
		names := make([]string, 0, len(list))
		for _, t := range list {
			names = append(names, fmt.Sprint(t))
		}
		return strings.Join(names, ", ")
	case gPhotoCount:
		return strconv.Itoa(len(jsonList(v)))
	case gPhotos:
		list := jsonList(v)
		if len(list) == 0 {
			return ""
		}
		b, err := json.Marshal(head(list, 5))
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return r.String(c.Field)
	}
}

// jsonList accepts a decoded JSON array or the JSON text of one.
func jsonList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case string:
		var list []any
		if err := json.Unmarshal([]byte(t), &list); err != nil {
			return nil
		}
		return list
	}
	return nil
}

func init() {
	rootCmd.AddCommand(combineCmd)
}
