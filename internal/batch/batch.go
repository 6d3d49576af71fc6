// Package batch carries the bookkeeping shared by the row-at-a-time jobs:
// run banners, per-row status lines, tallies and the pause between calls.
package batch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

var rule = strings.Repeat("=", 70)

// Run identifies one invocation of a job.
type Run struct {
	ID      string
	Name    string
	Started time.Time
}

func NewRun(name string) *Run {
	return &Run{ID: uuid.NewString(), Name: name, Started: time.Now()}
}

// Banner prints the job title framed by rules.
func (r *Run) Banner(w io.Writer) {
	fmt.Fprintln(w, r.Name)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Run %s started %s\n\n", r.ID, r.Started.Format(time.RFC3339))
}

// Elapsed is the run duration truncated to milliseconds.
func (r *Run) Elapsed() time.Duration {
	return time.Since(r.Started).Truncate(time.Millisecond)
}

// Status is the outcome of one row.
type Status int

const (
	Updated Status = iota
	NotFound
	Failed
	Error
	Skipped
)

func (s Status) Glyph() string {
	switch s {
	case Updated:
		return "✓"
	case NotFound, Failed:
		return "✗"
	case Error:
		return "⚠"
	default:
		return "-"
	}
}

// Tally counts row outcomes. Failed rows are counted as errors.
type Tally struct {
	Updated  int
	NotFound int
	Errors   int
	Skipped  int
}

// Add records one outcome.
func (t *Tally) Add(s Status) {
	switch s {
	case Updated:
		t.Updated++
	case NotFound:
		t.NotFound++
	case Failed, Error:
		t.Errors++
	case Skipped:
		t.Skipped++
	}
}

// Record counts s and prints its glyph line, e.g. "✗ Not found".
func (t *Tally) Record(w io.Writer, s Status, msg string) {
	t.Add(s)
	fmt.Fprintf(w, "%s %s\n", s.Glyph(), msg)
}

func (t *Tally) Total() int {
	return t.Updated + t.NotFound + t.Errors + t.Skipped
}

// Summary prints the end-of-run block.
func (t *Tally) Summary(w io.Writer, noun string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  ✓ Updated: %d %s\n", t.Updated, noun)
	fmt.Fprintf(w, "  ✗ Not found: %d %s\n", t.NotFound, noun)
	fmt.Fprintf(w, "  ⚠ Errors: %d %s\n", t.Errors, noun)
	fmt.Fprintf(w, "  - Skipped: %d %s\n", t.Skipped, noun)
	fmt.Fprintf(w, "  Total processed: %d %s\n", t.Total(), noun)
	fmt.Fprintln(w, rule)
}

// Pace waits delay between item i and the next one. Nothing is waited after
// the last item (i == total). It returns ctx.Err() if ctx is cancelled first.
func Pace(ctx context.Context, delay time.Duration, i, total int) error {
	if delay <= 0 || i >= total {
		return ctx.Err()
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Truncate shortens s to n runes for progress lines.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
