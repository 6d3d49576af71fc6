package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"glampdata/internal/batch"
	"glampdata/internal/supabase"
	"glampdata/internal/types"

	"github.com/spf13/cobra"
)

// blockedHosts are listing marketplaces whose pages are not property sites.
var blockedHosts = []string{"airbnb", "hipcamp"}

var (
	pruneYes    bool
	pruneDryRun bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete rows whose website is an Airbnb or Hipcamp listing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		store, done := openStore(ctx, out, !pruneDryRun)
		defer done()

		fmt.Fprintln(out, rule70)
		fmt.Fprintln(out, "DELETE AIRBNB AND HIPCAMP PROPERTIES")
		fmt.Fprintln(out, rule70)
		fmt.Fprintln(out, "\nFetching properties with Airbnb or Hipcamp URLs...")
		rows, err := store.Select(ctx, tableFlag, "id,property_name,url,google_website_uri", 0)
		if err != nil {
			return fmt.Errorf("fetch properties: %w", err)
		}
		victims := pruneCandidates(rows)
		if len(victims) == 0 {
			fmt.Fprintln(out, "\n✓ No properties found with Airbnb or Hipcamp URLs")
			return nil
		}

		fmt.Fprintf(out, "\nFound %d properties to delete:\n", len(victims))
		for i, r := range head(victims, 10) {
			fmt.Fprintf(out, "  %d. %s\n     %s\n", i+1, batch.Truncate(r.String(types.FieldPropertyName), 60), pruneURL(r))
		}
		if len(victims) > 10 {
			fmt.Fprintf(out, "  ... and %d more\n", len(victims)-10)
		}

		if pruneDryRun {
			fmt.Fprintln(out, "\nDry run, nothing deleted")
			return nil
		}
		if !pruneYes && !confirmYes(cmd.InOrStdin(), out, len(victims)) {
			fmt.Fprintln(out, "Aborted")
			return nil
		}

		ids := make([]int64, 0, len(victims))
		for _, r := range victims {
			if id, ok := r.ID(); ok {
				ids = append(ids, id)
			}
		}
		fmt.Fprintf(out, "\nDeleting %d properties...\n", len(ids))
		n, err := store.Delete(ctx, tableFlag, ids)
		fmt.Fprintf(out, "✓ Deleted %d properties\n", n)
		return err
	},
}

// pruneCandidates returns rows whose url or google_website_uri points at a
// blocked host.
func pruneCandidates(rows []supabase.Row) []supabase.Row {
	var out []supabase.Row
	for _, r := range rows {
		if blocked(r.String(types.FieldURL)) || blocked(r.String(types.FieldGoogleWebsiteURI)) {
			out = append(out, r)
		}
	}
	return out
}

func blocked(u string) bool {
	u = strings.ToLower(u)
	for _, h := range blockedHosts {
		if strings.Contains(u, h) {
			return true
		}
	}
	return false
}

func pruneURL(r supabase.Row) string {
	if u := r.String(types.FieldURL); blocked(u) {
		return u
	}
	return r.String(types.FieldGoogleWebsiteURI)
}

func confirmYes(in io.Reader, w io.Writer, n int) bool {
	fmt.Fprintf(w, "\n⚠ This permanently deletes %d properties. Type 'yes' to continue: ", n)
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(strings.ToLower(line)) == "yes"
}

func init() {
	pruneCmd.Flags().BoolVarP(&pruneYes, "yes", "y", false, "delete without asking")
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "list the rows without deleting")
	rootCmd.AddCommand(pruneCmd)
}
