package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"glampdata/internal/monitor"
	"glampdata/internal/supabase"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	monitorInterval time.Duration
	monitorListen   string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch Google coverage of the table while an enrichment job runs",
	Long: `Re-reads the table every --interval and prints how many rows have a Google
phone number, website or primary type. With --listen the latest snapshot is
also served as JSON on /coverage. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		store, done := openStore(ctx, out, false)
		defer done()

		state := &monitor.State{}
		if monitorListen != "" {
			gin.SetMode(gin.ReleaseMode)
			srv := &http.Server{Addr: monitorListen, Handler: monitor.NewRouter(state)}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					warnf("coverage server: %v", err)
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
			fmt.Fprintf(out, "Serving coverage on http://%s/coverage\n", monitorListen)
		}

		fmt.Fprintln(out, rule70)
		fmt.Fprintln(out, "Monitoring Google Places data population progress...")
		fmt.Fprintln(out, rule70)
		fmt.Fprintf(out, "Table: %s, checking every %s. Press Ctrl+C to stop.\n\n", tableFlag, monitorInterval)

		p := &monitor.Poller{
			Fetch: func(ctx context.Context) ([]supabase.Row, error) {
				return store.Select(ctx, tableFlag, monitor.SelectColumns, 0)
			},
			Interval: monitorInterval,
			State:    state,
			Out:      out,
		}
		if _, err := p.Run(ctx); err != nil {
			return err
		}
		if latest, ok := state.Latest(); ok {
			fmt.Fprintf(out, "\n\nMonitoring stopped.\nFinal %s\n", monitor.FormatLine(latest))
		}
		return nil
	},
}

func init() {
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 5*time.Second, "time between checks")
	monitorCmd.Flags().StringVar(&monitorListen, "listen", "", "serve /coverage and /health on this address (e.g. :8080)")
	rootCmd.AddCommand(monitorCmd)
}
