package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"glampdata/internal/supabase"

	"github.com/gin-gonic/gin"
)

func sampleRows() []supabase.Row {
	return []supabase.Row{
		{"id": 1, "google_phone_number": "+1 555", "google_website_uri": "https://a.com"},
		{"id": 2, "google_primary_type": "campground"},
		{"id": 3, "google_phone_number": ""},
		{"id": 4},
	}
}

func TestCoverage(t *testing.T) {
	s := Coverage(sampleRows())
	if s.Total != 4 || s.WithAny != 2 || s.Without != 2 {
		t.Fatalf("unexpected coverage %+v", s)
	}
	if s.PerField["google_phone_number"] != 1 || s.PerField["google_primary_type"] != 1 {
		t.Fatalf("unexpected per-field counts %v", s.PerField)
	}
	if s.Percent() != 50 {
		t.Fatalf("expected 50%%, got %f", s.Percent())
	}
	if !strings.Contains(FormatLine(s), "Coverage: 2/4 (50.0%)") {
		t.Fatalf("unexpected line %q", FormatLine(s))
	}
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	state := &State{}
	r := NewRouter(state)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/coverage", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before first poll, got %d", w.Code)
	}

	state.Set(Coverage(sampleRows()[:2]))
	state.Set(Coverage(sampleRows()))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/coverage", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var body struct {
		Latest            Snapshot `json:"latest"`
		UpdatedSinceStart int      `json:"updated_since_start"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Latest.Total != 4 || body.UpdatedSinceStart != 0 {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestPollerStopsOnCancel(t *testing.T) {
	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		Interval: 5 * time.Millisecond,
		State:    &State{},
		Out:      &bytes.Buffer{},
		Fetch: func(ctx context.Context) ([]supabase.Row, error) {
			n := atomic.AddInt32(&calls, 1)
			rows := sampleRows()
			if n >= 3 {
				rows[3]["google_website_uri"] = "https://d.com"
				cancel()
			}
			return rows, nil
		},
	}
	final, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if final.WithAny != 3 {
		t.Fatalf("expected progress to be recorded, got %+v", final)
	}
	if !strings.Contains(p.Out.(*bytes.Buffer).String(), "✓ Progress: +1 properties updated") {
		t.Fatalf("expected progress line, got %q", p.Out.(*bytes.Buffer).String())
	}
}
