// Package csvtable keeps a CSV file as an ordered header plus raw string
// records so that rewrites never drop or reorder columns by accident.
package csvtable

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Table is a loaded CSV file. Every record has exactly len(Header) cells.
// Records wider than the header row widen the header with unnamed columns so
// no cell is lost on rewrite.
type Table struct {
	Path    string
	Header  []string
	Records [][]string

	index map[string]int
}

// New returns an empty table with the given header.
func New(header []string) *Table {
	t := &Table{Header: append([]string(nil), header...)}
	t.reindex()
	return t
}

// Load reads a CSV file with a header row. A UTF-8 BOM is ignored and short
// records are padded with empty cells.
func Load(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := Parse(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	t.Path = path
	return t, nil
}

// Parse reads CSV data with a header row from r.
func Parse(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	t := New(header)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) > len(t.Header) {
			t.widen(len(rec))
		}
		t.Records = append(t.Records, t.fit(rec))
	}
	return t, nil
}

func (t *Table) fit(rec []string) []string {
	if len(rec) == len(t.Header) {
		return rec
	}
	out := make([]string, len(t.Header))
	copy(out, rec)
	return out
}

// widen grows the header to n columns with blank names and pads the records
// read so far.
func (t *Table) widen(n int) {
	t.Header = append(t.Header, make([]string, n-len(t.Header))...)
	for i, rec := range t.Records {
		t.Records[i] = t.fit(rec)
	}
	t.reindex()
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Records) }

// Has reports whether the header contains col.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Index returns the position of col, or -1.
func (t *Table) Index(col string) int {
	if i, ok := t.index[col]; ok {
		return i
	}
	return -1
}

// Get returns the cell for row i, or "" when the column is absent.
func (t *Table) Get(i int, col string) string {
	j, ok := t.index[col]
	if !ok {
		return ""
	}
	return t.Records[i][j]
}

// Value is Get with surrounding whitespace trimmed.
func (t *Table) Value(i int, col string) string {
	return strings.TrimSpace(t.Get(i, col))
}

// Set writes a cell. Setting an absent column appends it to the header.
func (t *Table) Set(i int, col, value string) {
	if !t.Has(col) {
		t.AppendColumns(col)
	}
	t.Records[i][t.index[col]] = value
}

// Map returns row i keyed by header name.
func (t *Table) Map(i int) map[string]string {
	m := make(map[string]string, len(t.Header))
	for j, h := range t.Header {
		if _, dup := m[h]; !dup {
			m[h] = t.Records[i][j]
		}
	}
	return m
}

// Append adds a row from a header-keyed map. Keys not in the header are ignored.
func (t *Table) Append(row map[string]string) {
	rec := make([]string, len(t.Header))
	for j, h := range t.Header {
		rec[j] = row[h]
	}
	t.Records = append(t.Records, rec)
}

// AppendColumns adds the missing columns at the end of the header.
func (t *Table) AppendColumns(cols ...string) bool {
	return t.insertAt(len(t.Header), cols)
}

// InsertColumns places the missing columns directly after the column named
// after, or at the end when after is absent. Existing cells are untouched and
// new cells are empty.
func (t *Table) InsertColumns(after string, cols ...string) bool {
	pos := len(t.Header)
	if i := t.Index(after); i >= 0 {
		pos = i + 1
	}
	return t.insertAt(pos, cols)
}

func (t *Table) insertAt(pos int, cols []string) bool {
	var add []string
	seen := make(map[string]bool)
	for _, c := range cols {
		if !t.Has(c) && !seen[c] {
			add = append(add, c)
			seen[c] = true
		}
	}
	if len(add) == 0 {
		return false
	}
	header := make([]string, 0, len(t.Header)+len(add))
	header = append(header, t.Header[:pos]...)
	header = append(header, add...)
	header = append(header, t.Header[pos:]...)

	for i, rec := range t.Records {
		out := make([]string, 0, len(header))
		out = append(out, rec[:pos]...)
		out = append(out, make([]string, len(add))...)
		out = append(out, rec[pos:]...)
		t.Records[i] = out
	}
	t.Header = header
	t.reindex()
	return true
}

// Reorder moves the listed columns to the front in the given order, keeping the
// remaining columns in their original order. It returns the listed columns the
// table does not have.
func (t *Table) Reorder(first []string) (missing []string) {
	var order []int
	used := make(map[int]bool)
	for _, c := range first {
		i := t.Index(c)
		if i < 0 {
			missing = append(missing, c)
			continue
		}
		if !used[i] {
			order = append(order, i)
			used[i] = true
		}
	}
	for i := range t.Header {
		if !used[i] {
			order = append(order, i)
		}
	}

	header := make([]string, len(order))
	for k, i := range order {
		header[k] = t.Header[i]
	}
	for r, rec := range t.Records {
		out := make([]string, len(order))
		for k, i := range order {
			out[k] = rec[i]
		}
		t.Records[r] = out
	}
	t.Header = header
	t.reindex()
	return missing
}

// Filter keeps the rows for which keep returns true and returns how many were removed.
func (t *Table) Filter(keep func(i int) bool) int {
	kept := t.Records[:0:0]
	for i, rec := range t.Records {
		if keep(i) {
			kept = append(kept, rec)
		}
	}
	removed := len(t.Records) - len(kept)
	t.Records = kept
	return removed
}

// EmptyRow reports whether every cell of row i is blank.
func (t *Table) EmptyRow(i int) bool {
	for _, v := range t.Records[i] {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// FindColumn returns the first header containing any of the substrings,
// compared case-insensitively.
func (t *Table) FindColumn(subs ...string) string {
	for _, h := range t.Header {
		lh := strings.ToLower(h)
		for _, s := range subs {
			if strings.Contains(lh, strings.ToLower(s)) {
				return h
			}
		}
	}
	return ""
}

// Write replaces path atomically: the table is written to a temporary file in
// the same directory which is then renamed over the target.
func (t *Table) Write(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if fi, err := os.Stat(path); err == nil {
		if err := tmp.Chmod(fi.Mode().Perm()); err != nil {
			tmp.Close()
			return err
		}
	} else if errors.Is(err, fs.ErrNotExist) {
		if err := tmp.Chmod(0o644); err != nil {
			tmp.Close()
			return err
		}
	}

	bw := bufio.NewWriter(tmp)
	if err := t.Encode(bw); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Encode writes the header and records with minimal quoting and CRLF line
// endings, matching the spreadsheets the exports round-trip through.
func (t *Table) Encode(w io.Writer) error {
	if err := writeRecord(w, t.Header); err != nil {
		return err
	}
	for _, rec := range t.Records {
		if err := writeRecord(w, rec); err != nil {
			return err
		}
	}
	return nil
}

func writeRecord(w io.Writer, rec []string) error {
	for i, field := range rec {
		if i > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		if needsQuote(field) {
			field = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
		}
		if _, err := io.WriteString(w, field); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}

func needsQuote(s string) bool {
	return strings.ContainsAny(s, ",\"\n\r")
}
