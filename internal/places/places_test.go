package places

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestBuildQuery(t *testing.T) {
	got := BuildQuery("Camp Aramoni", " Calistoga ", "", "6 Aramoni Way")
	if got != "Camp Aramoni Calistoga 6 Aramoni Way" {
		t.Fatalf("unexpected query %q", got)
	}
}

func TestSearchTextHeadersMaskAndCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Method != http.MethodPost || r.URL.Path != "/v1/places:searchText" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("X-Goog-Api-Key"); got != "test-key" {
			t.Errorf("expected api key header, got %q", got)
		}
		if got := r.Header.Get("X-Goog-FieldMask"); got != "places.id,places.displayName" {
			t.Errorf("unexpected field mask %q", got)
		}
		var body map[string]any
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["textQuery"] != "Camp Aramoni Calistoga" || body["maxResultCount"] != float64(1) {
			t.Errorf("unexpected body %v", body)
		}
		w.Write([]byte(`{"places":[{"id":"abc123","displayName":{"text":"Camp Aramoni"}}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	for i := 0; i < 3; i++ {
		p, err := c.SearchText(context.Background(), "Camp Aramoni Calistoga", SearchIDFields...)
		if err != nil {
			t.Fatalf("SearchText error: %v", err)
		}
		if p == nil || p.ID != "abc123" || p.Name() != "Camp Aramoni" {
			t.Fatalf("unexpected place %+v", p)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 request with cache, got %d", calls)
	}
}

func TestSearchTextNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	p, err := c.SearchText(context.Background(), "Nowhere Glamping", SearchIDFields...)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if p != nil {
		t.Fatalf("expected nil place, got %+v", p)
	}
	// cached miss
	p, err = c.SearchText(context.Background(), "Nowhere Glamping", SearchIDFields...)
	if err != nil || p != nil {
		t.Fatalf("expected cached nil, got %+v %v", p, err)
	}
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	c := NewClient("bad", WithBaseURL(srv.URL))
	_, err := c.Details(context.Background(), "abc", RatingDetailFields...)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusForbidden || apiErr.Message != "API key not valid" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

const detailsJSON = `{
  "id": "abc123",
  "internationalPhoneNumber": "+1 707-555-0100",
  "websiteUri": "https://camparamoni.com",
  "dineIn": false,
  "types": ["campground", "lodging"],
  "primaryType": "campground",
  "primaryTypeDisplayName": {"text": "Campground"},
  "photos": [
    {"name": "p1", "widthPx": 100, "heightPx": 50, "authorAttributions": [{"displayName": "A"}], "flagContentUri": "x"},
    {"name": "p2"}, {"name": "p3"}, {"name": "p4"}, {"name": "p5"}, {"name": "p6"}
  ],
  "regularOpeningHours": {"openNow": true},
  "accessibilityOptions": {"wheelchairAccessibleParking": true},
  "generativeSummary": {"overview": {"text": "A quiet camp in the hills."}}
}`

func TestDetailsGoogleColumns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/places/abc123" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if mask := r.Header.Get("X-Goog-FieldMask"); mask[:3] != "id," {
			t.Errorf("expected unprefixed mask, got %q", mask)
		}
		w.Write([]byte(detailsJSON))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	p, err := c.Details(context.Background(), "abc123", ExtendedFields...)
	if err != nil {
		t.Fatalf("Details error: %v", err)
	}

	cols := p.GoogleColumns()
	if cols["google_phone_number"] != "+1 707-555-0100" {
		t.Fatalf("unexpected phone %v", cols["google_phone_number"])
	}
	if cols["google_dine_in"] != false {
		t.Fatalf("expected explicit false to be kept, got %v", cols["google_dine_in"])
	}
	if _, ok := cols["google_takeout"]; ok {
		t.Fatalf("expected missing takeout to be dropped")
	}
	if cols["google_place_types"] != `["campground","lodging"]` {
		t.Fatalf("unexpected types %v", cols["google_place_types"])
	}
	if cols["google_wheelchair_accessible_parking"] != true {
		t.Fatalf("expected accessibility flag")
	}
	if cols["google_description"] != "A quiet camp in the hills." {
		t.Fatalf("expected generative summary fallback, got %v", cols["google_description"])
	}
	if cols["google_opening_hours"] != `{"openNow": true}` {
		t.Fatalf("unexpected opening hours %v", cols["google_opening_hours"])
	}

	var photos []Photo
	if err := json.Unmarshal([]byte(cols["google_photos"].(string)), &photos); err != nil {
		t.Fatalf("decode photos: %v", err)
	}
	if len(photos) != 5 {
		t.Fatalf("expected top 5 photos, got %d", len(photos))
	}
	if photos[1].AuthorAttributions == nil {
		t.Fatalf("expected empty attributions to be an empty list")
	}
}

func TestDescriptionPrefersEditorial(t *testing.T) {
	p := Place{
		EditorialSummary:  &LocalizedText{Text: "Editorial."},
		GenerativeSummary: &GenerativeSummary{Text: "Generated."},
	}
	if got := p.Description(); got != "Editorial." {
		t.Fatalf("expected editorial summary, got %q", got)
	}
	if got := (&Place{}).Description(); got != "" {
		t.Fatalf("expected empty description, got %q", got)
	}
}
