package main

import (
	"fmt"
	"strings"

	"glampdata/internal/csvtable"
	"glampdata/internal/types"

	"github.com/spf13/cobra"
)

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Reorder or add CSV columns",
}

var columnsOut string

var columnsReorderCmd = &cobra.Command{
	Use:   "reorder CSV",
	Short: "Move the key columns to the front",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		t, err := csvtable.Load(args[0])
		if err != nil {
			return err
		}
		if missing := t.Reorder(types.KeyColumns); len(missing) > 0 {
			warnf("missing key columns: %s", strings.Join(missing, ", "))
		}
		dest := outputPath(columnsOut, args[0])
		if err := t.Write(dest); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
		fmt.Fprintf(out, "✓ Reordered %d columns in %s (%d rows)\n", len(t.Header), dest, t.Len())
		fmt.Fprintf(out, "  First columns: %s\n", strings.Join(head(t.Header, len(types.KeyColumns)), ", "))
		return nil
	},
}

var columnsAddGoogleCmd = &cobra.Command{
	Use:   "add-google CSV",
	Short: "Insert Google Rating and Google Review Count after Url",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		t, err := csvtable.Load(args[0])
		if err != nil {
			return err
		}
		if !t.InsertColumns(types.ColURL, types.ColGoogleRating, types.ColGoogleReviews) {
			fmt.Fprintf(out, "- %s already has the Google columns, nothing to do\n", args[0])
			return nil
		}
		dest := outputPath(columnsOut, args[0])
		if err := t.Write(dest); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
		fmt.Fprintf(out, "Added Google Rating and Google Review Count columns to %s\n", dest)
		fmt.Fprintf(out, "Total rows processed: %d\n", t.Len())
		return nil
	},
}

func head[T any](s []T, n int) []T {
	if len(s) < n {
		return s
	}
	return s[:n]
}

func init() {
	columnsCmd.PersistentFlags().StringVarP(&columnsOut, "out", "o", "", "output CSV (default: rewrite in place)")
	columnsCmd.AddCommand(columnsReorderCmd, columnsAddGoogleCmd)
	rootCmd.AddCommand(columnsCmd)
}
