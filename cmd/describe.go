package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"glampdata/internal/batch"
	"glampdata/internal/llm"
	"glampdata/internal/supabase"
	"glampdata/internal/types"

	"github.com/spf13/cobra"
)

// minSiteText is the least extracted text worth sending for a description.
const minSiteText = 100

var describeOverwrite bool

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Write property descriptions from their websites with OpenAI",
	Long: `For every row with a google_website_uri, the site is downloaded, its main text
extracted and sent to OpenAI for a short guest-facing description, which is
stored in the description column. Rows that already have a description are
skipped unless --overwrite is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		if err := cfg.RequireOpenAI(); err != nil {
			fatalf("%v", err)
		}
		store, done := openStore(ctx, out, true)
		defer done()

		run := batch.NewRun("Generate Property Descriptions")
		run.Banner(out)
		if describeOverwrite {
			fmt.Fprintln(out, "Overwrite mode: regenerating descriptions for all properties")
		} else {
			fmt.Fprintln(out, "Resuming: properties that already have descriptions are skipped")
		}
		tally, err := describeTable(ctx, out, store, describer{
			gen:   llm.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel),
			fetch: &http.Client{Timeout: 3 * cfg.HTTPTimeout},
			pause: time.Second,
		}, describeOptions{
			Table:     tableFlag,
			Limit:     limitFlag,
			Delay:     delayOr(2 * time.Second),
			Overwrite: describeOverwrite,
		})
		tally.Summary(out, "properties")
		fmt.Fprintf(out, "Finished in %s\n", run.Elapsed())
		return err
	},
}

type describeOptions struct {
	Table     string
	Limit     int
	Delay     time.Duration
	Overwrite bool
}

// describer turns one website into a description.
type describer struct {
	gen   *llm.OpenAIClient
	fetch *http.Client
	// pause separates the page fetch from the model call.
	pause time.Duration
}

func describeTable(ctx context.Context, w io.Writer, store propertyStore, d describer, opts describeOptions) (batch.Tally, error) {
	var tally batch.Tally
	fmt.Fprintln(w, "Fetching properties from database...")
	rows, err := store.Select(ctx, opts.Table, "id,property_name,google_website_uri,description", 0)
	if err != nil {
		return tally, fmt.Errorf("fetch properties: %w", err)
	}
	withSite := filterRows(rows, func(r supabase.Row) bool { return r.Has(types.FieldGoogleWebsiteURI) })
	if len(withSite) == 0 {
		fmt.Fprintln(w, "No properties found with google_website_uri")
		return tally, nil
	}
	todo := withSite
	if !opts.Overwrite {
		todo = filterRows(withSite, func(r supabase.Row) bool { return !r.Has(types.FieldDescription) })
		if skipped := len(withSite) - len(todo); skipped > 0 {
			fmt.Fprintf(w, "Skipping %d properties that already have descriptions\n", skipped)
		}
	}
	todo = limitRows(todo, opts.Limit)
	fmt.Fprintf(w, "Found %d properties needing descriptions (out of %d with website URIs)\n\n", len(todo), len(withSite))

	for i, r := range todo {
		p := types.FromFields(r)
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("Property #%d", p.ID)
		}
		fmt.Fprintf(w, "[%d/%d] %s\n  URL: %s\n  ", i+1, len(todo), name, p.GoogleWebsiteURI)
		desc, err := d.describe(ctx, name, p.GoogleWebsiteURI)
		switch {
		case err != nil && ctx.Err() != nil:
			return tally, ctx.Err()
		case err != nil:
			tally.Record(w, batch.Failed, err.Error())
		default:
			if _, err := store.Update(ctx, opts.Table, p.ID, map[string]any{types.FieldDescription: desc}); err != nil {
				tally.Record(w, batch.Error, updateError(err))
			} else {
				tally.Record(w, batch.Updated, fmt.Sprintf("Generated description (%d characters)", len(desc)))
			}
		}
		if err := batch.Pace(ctx, opts.Delay, i+1, len(todo)); err != nil {
			return tally, err
		}
	}
	return tally, nil
}

func (d describer) describe(ctx context.Context, name, site string) (string, error) {
	page, err := llm.FetchPage(ctx, d.fetch, site)
	if err != nil {
		return "", fmt.Errorf("fetch website: %w", err)
	}
	text, err := llm.ExtractText(page, llm.MaxContentLength)
	if err != nil {
		return "", err
	}
	if len(text) < minSiteText {
		return "", fmt.Errorf("insufficient content extracted (%d characters)", len(text))
	}
	if err := batch.Pace(ctx, d.pause, 0, 1); err != nil {
		return "", err
	}
	return d.gen.Describe(ctx, name, site, text)
}

func init() {
	describeCmd.Flags().BoolVar(&describeOverwrite, "overwrite", false, "regenerate existing descriptions")
	rootCmd.AddCommand(describeCmd)
}
