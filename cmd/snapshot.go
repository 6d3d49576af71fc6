package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"glampdata/internal/batch"
	"glampdata/internal/csvtable"
	"glampdata/internal/database"
	"glampdata/internal/supabase"
	"glampdata/internal/types"

	"github.com/spf13/cobra"
)

var (
	snapshotDriver string
	snapshotDSN    string
	snapshotCSV    string
	snapshotName   string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Copy the table or a CSV export into a SQL database",
	Long: `Exports every row of --table (or of --csv) into a table of text columns in a
SQLite, Postgres or Oracle database. An existing table of the same name is
replaced. Oracle connections without --dsn are built from DB_HOST, DB_PORT,
DB_SERVICE, DB_USERNAME, DB_PASSWORD and DB_WALLET_LOCATION.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		run := batch.NewRun("SQL Snapshot")
		run.Banner(out)

		var snap database.Snapshot
		if snapshotCSV != "" {
			t, err := csvtable.Load(snapshotCSV)
			if err != nil {
				return err
			}
			snap = database.Snapshot{
				Table:   strings.TrimSuffix(filepath.Base(snapshotCSV), filepath.Ext(snapshotCSV)),
				Columns: t.Header,
				Rows:    t.Records,
			}
		} else {
			store, done := openStore(ctx, out, false)
			defer done()
			rows, err := store.Select(ctx, tableFlag, "*", limitFlag)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", tableFlag, err)
			}
			snap = tableSnapshot(tableFlag, rows)
		}
		if snapshotName != "" {
			snap.Table = snapshotName
		}
		snap.Table = database.ColumnName(snap.Table)

		dsn := snapshotDSN
		if dsn == "" && snapshotDriver == database.DriverSQLite {
			dsn = "glamp_snapshot.db"
		}
		db, err := database.Open(ctx, snapshotDriver, dsn)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := database.Export(ctx, db, snap, run.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Exported %d rows (%d columns) to %s table %s in %s\n",
			n, len(snap.Columns), snapshotDriver, snap.Table, run.Elapsed())
		return nil
	},
}

// tableSnapshot lays rows out under the union of their keys, id first and
// the rest sorted.
func tableSnapshot(table string, rows []supabase.Row) database.Snapshot {
	keys := make(map[string]bool)
	for _, r := range rows {
		for k := range r {
			keys[k] = true
		}
	}
	var cols []string
	for k := range keys {
		if k != types.FieldID {
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)
	if keys[types.FieldID] {
		cols = append([]string{types.FieldID}, cols...)
	}

	snap := database.Snapshot{Table: table, Columns: cols, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		rec := make([]string, len(cols))
		for j, c := range cols {
			rec[j] = r.String(c)
		}
		snap.Rows = append(snap.Rows, rec)
	}
	return snap
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotDriver, "driver", database.DriverSQLite, "target driver: sqlite, postgres or oracle")
	snapshotCmd.Flags().StringVar(&snapshotDSN, "dsn", "", "target data source (sqlite default: glamp_snapshot.db)")
	snapshotCmd.Flags().StringVar(&snapshotCSV, "csv", "", "export this CSV instead of the hosted table")
	snapshotCmd.Flags().StringVar(&snapshotName, "name", "", "target table name (default: source table or CSV base name)")
	rootCmd.AddCommand(snapshotCmd)
}
