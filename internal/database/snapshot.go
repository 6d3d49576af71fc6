package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Snapshot is a tabular export: a header and string rows, as read from a CSV
// file or a property table.
type Snapshot struct {
	Table   string
	Columns []string
	Rows    [][]string
}

var notIdent = regexp.MustCompile(`[^a-z0-9_]+`)

// ColumnName turns a CSV header into a lower snake case SQL column name.
func ColumnName(header string) string {
	name := strings.Trim(notIdent.ReplaceAllString(strings.ToLower(strings.TrimSpace(header)), "_"), "_")
	if name == "" {
		return "col"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "c_" + name
	}
	return name
}

// columnNames maps headers to unique column names. run_id and exported_at are
// reserved for snapshot metadata.
func columnNames(headers []string) []string {
	seen := map[string]bool{"run_id": true, "exported_at": true}
	out := make([]string, len(headers))
	for i, h := range headers {
		base := ColumnName(h)
		name := base
		for n := 2; seen[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Export replaces the snapshot table in db with the rows of s, tagged with the
// run id. It returns the number of rows written.
func Export(ctx context.Context, db *sqlx.DB, s Snapshot, runID string) (int, error) {
	if len(s.Columns) == 0 {
		return 0, fmt.Errorf("snapshot %s has no columns", s.Table)
	}
	driver := db.DriverName()
	table := ColumnName(s.Table)
	cols := columnNames(s.Columns)

	textType := "TEXT"
	if driver == DriverOracle {
		textType = "VARCHAR2(4000)"
	}
	defs := make([]string, 0, len(cols)+2)
	for _, c := range cols {
		defs = append(defs, quote(c)+" "+textType)
	}
	defs = append(defs, quote("run_id")+" "+textType, quote("exported_at")+" "+textType)

	if _, err := db.ExecContext(ctx, dropTable(driver, table)); err != nil {
		return 0, fmt.Errorf("drop %s: %w", table, err)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quote(table), strings.Join(defs, ", "))
	if _, err := db.ExecContext(ctx, create); err != nil {
		return 0, fmt.Errorf("create %s: %w", table, err)
	}

	quoted := make([]string, 0, len(cols)+2)
	for _, c := range cols {
		quoted = append(quoted, quote(c))
	}
	quoted = append(quoted, quote("run_id"), quote("exported_at"))
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(quoted)), ", ")
	insert := db.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quote(table), strings.Join(quoted, ", "), marks))

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, insert)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	exportedAt := time.Now().UTC().Format(time.RFC3339)
	args := make([]any, len(quoted))
	for n, row := range s.Rows {
		for i := range cols {
			args[i] = ""
			if i < len(row) {
				args[i] = row[i]
			}
		}
		args[len(cols)] = runID
		args[len(cols)+1] = exportedAt
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", n+1, err)
		}
	}

	if name := nameColumn(cols); name != "" {
		index := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", quote("idx_"+table+"_"+name), quote(table), quote(name))
		if _, err := tx.ExecContext(ctx, index); err != nil {
			return 0, fmt.Errorf("index %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(s.Rows), nil
}

func dropTable(driver, table string) string {
	if driver == DriverOracle {
		// ORA-00942: table or view does not exist
		return fmt.Sprintf(`BEGIN EXECUTE IMMEDIATE 'DROP TABLE %s'; EXCEPTION WHEN OTHERS THEN IF SQLCODE != -942 THEN RAISE; END IF; END;`,
			strings.ReplaceAll(quote(table), "'", "''"))
	}
	return "DROP TABLE IF EXISTS " + quote(table)
}

func nameColumn(cols []string) string {
	for _, want := range []string{"property_name", "name"} {
		for _, c := range cols {
			if c == want {
				return c
			}
		}
	}
	return ""
}
