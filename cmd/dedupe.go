package main

import (
	"fmt"
	"io"
	"strings"

	"glampdata/internal/csvtable"
	"glampdata/internal/match"
	"glampdata/internal/types"

	"github.com/spf13/cobra"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Remove CSV rows that already exist elsewhere",
	Long: `Drop rows of a CSV whose Property Name matches a reference set of names.
Matching tries, in order: exact normalized name, same location after a known
brand prefix, containment, and Levenshtein similarity. The last two are
confirmed one by one with --review.`,
}

var (
	dedupeSource     string
	dedupeReview     bool
	dedupeDryRun     bool
	dedupeSimilarity float64
	dedupeOut        string
)

var dedupeCSVCmd = &cobra.Command{
	Use:   "csv TARGET REF...",
	Short: "Match against the names in other CSV files",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		var names []string
		for _, ref := range args[1:] {
			t, err := csvtable.Load(ref)
			if err != nil {
				return err
			}
			for i := 0; i < t.Len(); i++ {
				names = append(names, t.Value(i, types.ColPropertyName))
			}
			fmt.Fprintf(out, "  Read %d rows from %s\n", t.Len(), ref)
		}
		return dedupeFile(out, args[0], names)
	},
}

var dedupeDBCmd = &cobra.Command{
	Use:   "db CSV",
	Short: "Match against property_name in the hosted table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		store, done := openStore(ctx, out, false)
		defer done()

		fmt.Fprintf(out, "Fetching property names from %s...\n", tableFlag)
		rows, err := store.Select(ctx, tableFlag, "id,property_name", 0)
		if err != nil {
			return fmt.Errorf("fetch properties: %w", err)
		}
		names := make([]string, 0, len(rows))
		for _, r := range rows {
			names = append(names, r.String(types.FieldPropertyName))
		}
		fmt.Fprintf(out, "  Found %d properties in the database\n", len(names))
		return dedupeFile(out, args[0], names)
	},
}

func dedupeFile(w io.Writer, path string, names []string) error {
	t, err := csvtable.Load(path)
	if err != nil {
		return err
	}
	m := match.NewMatcher(names)
	m.Similarity = dedupeSimilarity
	fmt.Fprintf(w, "  %d distinct reference names, %d rows in %s\n\n", m.Len(), t.Len(), path)

	var confirm match.Confirm
	if dedupeReview {
		confirm = reviewMatch
	}
	before := t.Len()
	dups := match.Dedupe(t, types.ColPropertyName, m, sourceFilter(t, dedupeSource), confirm)
	for _, d := range dups {
		fmt.Fprintf(w, "  ✗ %s\n      matches %q (%s, %.2f)\n", d.Name, d.Result.Candidate, d.Result.Kind, d.Result.Score)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule70)
	fmt.Fprintf(w, "  Rows before: %d\n", before)
	fmt.Fprintf(w, "  Duplicates removed: %d\n", len(dups))
	fmt.Fprintf(w, "  Rows after: %d\n", t.Len())
	fmt.Fprintln(w, rule70)

	if dedupeDryRun {
		fmt.Fprintln(w, "Dry run, nothing written")
		return nil
	}
	if len(dups) == 0 {
		return nil
	}
	dest := outputPath(dedupeOut, path)
	if err := t.Write(dest); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	fmt.Fprintf(w, "✓ Wrote %d rows to %s\n", t.Len(), dest)
	return nil
}

// sourceFilter limits deduplication to rows whose Source equals source,
// compared case-insensitively. An empty source checks every row.
func sourceFilter(t *csvtable.Table, source string) func(int) bool {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil
	}
	return func(i int) bool {
		return strings.EqualFold(t.Value(i, types.ColSource), source)
	}
}

func init() {
	dedupeCmd.PersistentFlags().StringVar(&dedupeSource, "source", "", "only check rows with this Source (e.g. \"Postcard Cabins\")")
	dedupeCmd.PersistentFlags().BoolVar(&dedupeReview, "review", false, "confirm containment and similarity matches interactively")
	dedupeCmd.PersistentFlags().BoolVar(&dedupeDryRun, "dry-run", false, "report duplicates without writing")
	dedupeCmd.PersistentFlags().Float64Var(&dedupeSimilarity, "similarity", match.DefaultSimilarity, "minimum Levenshtein ratio (0 disables)")
	dedupeCmd.PersistentFlags().StringVarP(&dedupeOut, "out", "o", "", "output CSV (default: rewrite TARGET in place)")
	dedupeCmd.AddCommand(dedupeCSVCmd, dedupeDBCmd)
	rootCmd.AddCommand(dedupeCmd)
}
