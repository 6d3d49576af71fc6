package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"glampdata/internal/config"
	"glampdata/internal/places"
	"glampdata/internal/types"

	"github.com/spf13/cobra"
)

const (
	colorRed   = "\033[31m"
	colorReset = "\033[0m"
)

var rule70 = strings.Repeat("=", 70)

var (
	cfg config.Config

	tableFlag  string
	delayFlag  time.Duration
	limitFlag  int
	directFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "glamp",
	Short: "Maintenance jobs for the glamping property directory",
	Long: `glamp enriches, repairs and audits the glamping property exports and the
hosted property tables.

Credentials are read from the environment, then .env.local, then .env:
  NEXT_PUBLIC_GOOGLE_MAPS_API_KEY     Google Places API (New)
  NEXT_PUBLIC_SUPABASE_URL            Supabase project URL
  SUPABASE_SERVICE_ROLE_KEY           or SUPABASE_SECRET_KEY
  SUPABASE_DB_URL                     optional direct Postgres connection
  OPENAI_API_KEY                      property descriptions`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&tableFlag, "table", types.TableProperties, "hosted table to read and update")
	rootCmd.PersistentFlags().DurationVar(&delayFlag, "delay", 0, "pause between outbound calls (0 uses the command default)")
	rootCmd.PersistentFlags().IntVar(&limitFlag, "limit", 0, "process at most this many rows (0 for all)")
	rootCmd.PersistentFlags().BoolVar(&directFlag, "direct", false, "use SUPABASE_DB_URL instead of the REST API")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// fatalf prints a setup error and exits.
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"Error: "+format+colorReset+"\n", args...)
	os.Exit(1)
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "⚠ "+format+"\n", args...)
}

// delayOr returns --delay when set, else the command's own default.
func delayOr(def time.Duration) time.Duration {
	if delayFlag > 0 {
		return delayFlag
	}
	return def
}

// tableOr returns --table when given explicitly, else def.
func tableOr(cmd *cobra.Command, def string) string {
	if cmd.Flags().Changed("table") {
		return tableFlag
	}
	return def
}

func placesClient() *places.Client {
	if err := cfg.RequireGoogle(); err != nil {
		fatalf("%v", err)
	}
	return places.NewClient(cfg.GoogleAPIKey, places.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
}

// suffixed turns data/x.csv into data/x<suffix>.csv.
func suffixed(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

// outputPath is --out when set, otherwise the input path rewritten in place.
func outputPath(out, in string) string {
	if out != "" {
		return out
	}
	return in
}

func elapsed(start time.Time) time.Duration {
	return time.Since(start).Truncate(time.Millisecond)
}
