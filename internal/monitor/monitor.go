// Package monitor tracks how much of a table has been enriched with Google
// data while an enrichment job runs.
package monitor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"glampdata/internal/supabase"
)

// Fields are the columns whose presence counts as Google coverage.
var Fields = []string{"google_phone_number", "google_website_uri", "google_primary_type"}

// SelectColumns is the select list needed to compute coverage.
const SelectColumns = "id,google_phone_number,google_website_uri,google_primary_type"

// Snapshot is the coverage of one read of the table.
type Snapshot struct {
	Total     int            `json:"total"`
	WithAny   int            `json:"with_any"`
	Without   int            `json:"without"`
	PerField  map[string]int `json:"per_field"`
	CheckedAt time.Time      `json:"checked_at"`
}

// Percent is WithAny as a share of Total.
func (s Snapshot) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.WithAny) / float64(s.Total) * 100
}

// Coverage counts rows with any Google field and per-field totals.
func Coverage(rows []supabase.Row) Snapshot {
	s := Snapshot{Total: len(rows), PerField: make(map[string]int, len(Fields)), CheckedAt: time.Now()}
	for _, f := range Fields {
		s.PerField[f] = 0
	}
	for _, r := range rows {
		has := false
		for _, f := range Fields {
			if r.Has(f) {
				s.PerField[f]++
				has = true
			}
		}
		if has {
			s.WithAny++
		}
	}
	s.Without = s.Total - s.WithAny
	return s
}

// State holds the latest snapshot for concurrent readers.
type State struct {
	mu      sync.RWMutex
	latest  *Snapshot
	initial *Snapshot
}

func (st *State) Set(s Snapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.initial == nil {
		initial := s
		st.initial = &initial
	}
	st.latest = &s
}

// Latest returns the newest snapshot, or false before the first poll.
func (st *State) Latest() (Snapshot, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.latest == nil {
		return Snapshot{}, false
	}
	return *st.latest, true
}

// Initial returns the first snapshot taken.
func (st *State) Initial() (Snapshot, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.initial == nil {
		return Snapshot{}, false
	}
	return *st.initial, true
}

// FetchFunc reads the rows to measure.
type FetchFunc func(ctx context.Context) ([]supabase.Row, error)

// Poller re-reads the table at Interval and reports progress to Out.
type Poller struct {
	Fetch    FetchFunc
	Interval time.Duration
	State    *State
	Out      io.Writer
}

// Run polls until ctx is done and returns the final snapshot.
func (p *Poller) Run(ctx context.Context) (Snapshot, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	first, err := p.check(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	fmt.Fprintf(p.Out, "Initial coverage: %d/%d (%.1f%%)\n\n", first.WithAny, first.Total, first.Percent())
	baseline := first

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return baseline, nil
		case <-ticker.C:
		}
		cur, err := p.check(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return baseline, nil
			}
			fmt.Fprintf(p.Out, "\n  ⚠ %v\n", err)
			continue
		}
		fmt.Fprintf(p.Out, "\r[%s] %s", cur.CheckedAt.Format("15:04:05"), FormatLine(cur))
		if cur.WithAny > baseline.WithAny {
			fmt.Fprintf(p.Out, "\n  ✓ Progress: +%d properties updated\n", cur.WithAny-baseline.WithAny)
			baseline = cur
		}
	}
}

func (p *Poller) check(ctx context.Context) (Snapshot, error) {
	rows, err := p.Fetch(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("check coverage: %w", err)
	}
	s := Coverage(rows)
	if p.State != nil {
		p.State.Set(s)
	}
	return s, nil
}

// FormatLine renders a snapshot as one progress line.
func FormatLine(s Snapshot) string {
	return fmt.Sprintf("Coverage: %d/%d (%.1f%%) | Phone: %d | Website: %d | Type: %d | Remaining: %d",
		s.WithAny, s.Total, s.Percent(),
		s.PerField["google_phone_number"], s.PerField["google_website_uri"], s.PerField["google_primary_type"],
		s.Without)
}
