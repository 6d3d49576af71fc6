package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"glampdata/internal/supabase"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore talks to the Supabase database directly instead of through
// the REST gateway. It returns the same rows as the REST client.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to SUPABASE_DB_URL.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Select reads columns ("*" or a comma separated list) from table.
func (s *PostgresStore) Select(ctx context.Context, table, columns string, limit int) ([]supabase.Row, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", selectList(columns), ident(table))
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}
	return toRows(maps), nil
}

// Update sets fields on the row with the given id and returns the updated row.
func (s *PostgresStore) Update(ctx context.Context, table string, id int64, fields map[string]any) ([]supabase.Row, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("update %s id %d: no fields", table, id)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, len(keys))
	args := make([]any, 0, len(keys)+1)
	for i, k := range keys {
		sets[i] = fmt.Sprintf("%s = $%d", ident(k), i+1)
		args = append(args, fields[k])
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING *",
		ident(table), strings.Join(sets, ", "), len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s id %d: %w", table, id, err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("update %s id %d: %w", table, id, err)
	}
	if len(maps) == 0 {
		return nil, supabase.ErrNoRowsUpdated
	}
	return toRows(maps), nil
}

// Delete removes the rows with the given ids in batches and returns how many
// were deleted.
func (s *PostgresStore) Delete(ctx context.Context, table string, ids []int64) (int, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", ident(table))
	deleted := 0
	for start := 0; start < len(ids); start += supabase.DeleteBatchSize {
		end := min(start+supabase.DeleteBatchSize, len(ids))
		tag, err := s.pool.Exec(ctx, query, ids[start:end])
		if err != nil {
			return deleted, fmt.Errorf("delete batch %d-%d: %w", start, end, err)
		}
		deleted += int(tag.RowsAffected())
	}
	return deleted, nil
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func selectList(columns string) string {
	columns = strings.TrimSpace(columns)
	if columns == "" || columns == "*" {
		return "*"
	}
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = ident(strings.TrimSpace(p))
	}
	return strings.Join(parts, ", ")
}

func toRows(maps []map[string]any) []supabase.Row {
	out := make([]supabase.Row, len(maps))
	for i, m := range maps {
		for k, v := range m {
			m[k] = normalize(v)
		}
		out[i] = supabase.Row(m)
	}
	return out
}

// normalize converts pgx values into the shapes JSON decoding produces, so
// callers see the same row whichever store they use.
func normalize(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case [16]byte:
		return fmt.Sprintf("%x-%x-%x-%x-%x", x[0:4], x[4:6], x[6:8], x[8:10], x[10:16])
	default:
		return v
	}
}
