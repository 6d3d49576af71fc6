package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"glampdata/internal/config"
	"glampdata/internal/database"
	"glampdata/internal/supabase"
)

// propertyStore is satisfied by the PostgREST client and the direct
// Postgres store.
type propertyStore interface {
	Select(ctx context.Context, table, columns string, limit int) ([]supabase.Row, error)
	Update(ctx context.Context, table string, id int64, fields map[string]any) ([]supabase.Row, error)
	Delete(ctx context.Context, table string, ids []int64) (int, error)
}

// openStore picks the direct Postgres store when SUPABASE_DB_URL is set or
// --direct is given, and the REST client otherwise. Missing credentials are
// fatal.
func openStore(ctx context.Context, w io.Writer, writes bool) (propertyStore, func()) {
	if directFlag || cfg.SupabaseDBURL != "" {
		if cfg.SupabaseDBURL == "" {
			fatalf("--direct needs SUPABASE_DB_URL")
		}
		pg, err := database.OpenPostgres(ctx, cfg.SupabaseDBURL)
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Fprintln(w, "Using direct Postgres connection")
		return pg, pg.Close
	}

	if err := cfg.RequireSupabase(); err != nil {
		fatalf("%v", err)
	}
	if writes {
		warnAnonKey(cfg.SupabaseKey)
	}
	client := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey,
		supabase.WithHTTPClient(&http.Client{Timeout: 3 * cfg.HTTPTimeout}))
	return client, func() {}
}

// warnAnonKey flags keys that row level security will stop from writing.
func warnAnonKey(key string) {
	role, err := config.KeyRole(key)
	if err != nil {
		warnf("could not read the Supabase key role: %v", err)
		return
	}
	if role == "anon" {
		warnf("Supabase key %s has role anon; updates may be rejected. Use SUPABASE_SERVICE_ROLE_KEY.", config.MaskKey(key))
	}
}

// updateError turns an Update error into the per-row message.
func updateError(err error) string {
	var apiErr *supabase.APIError
	switch {
	case errors.Is(err, supabase.ErrNoRowsUpdated):
		return "Update failed"
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest:
		return fmt.Sprintf("Error: %s (check that the columns exist)", apiErr.Message)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
