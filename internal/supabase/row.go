package supabase

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Row is one decoded table row.
type Row map[string]any

// String returns the column as trimmed text. Numbers and booleans are
// formatted, arrays and objects are JSON text; nil and missing columns give "".
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case []any, map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// ID returns the integer id column.
func (r Row) ID() (int64, bool) {
	switch v := r["id"].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil
	}
	return 0, false
}

// Float parses the column as a float.
func (r Row) Float(col string) (float64, bool) {
	switch v := r[col].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// Has reports whether the column holds a non-nil, non-blank value.
func (r Row) Has(col string) bool {
	v, ok := r[col]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}
