package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"glampdata/internal/csvtable"
	"glampdata/internal/geo"
	"glampdata/internal/llm"
	"glampdata/internal/places"
	"glampdata/internal/supabase"
	"glampdata/internal/types"
)

type fakeStore struct {
	rows    []supabase.Row
	updates map[int64]map[string]any
	deleted []int64
}

func (s *fakeStore) Select(ctx context.Context, table, columns string, limit int) ([]supabase.Row, error) {
	if limit > 0 && limit < len(s.rows) {
		return s.rows[:limit], nil
	}
	return s.rows, nil
}

func (s *fakeStore) Update(ctx context.Context, table string, id int64, fields map[string]any) ([]supabase.Row, error) {
	if s.updates == nil {
		s.updates = make(map[int64]map[string]any)
	}
	s.updates[id] = fields
	return []supabase.Row{{"id": float64(id)}}, nil
}

func (s *fakeStore) Delete(ctx context.Context, table string, ids []int64) (int, error) {
	s.deleted = append(s.deleted, ids...)
	return len(ids), nil
}

func parseTable(t *testing.T, data string) *csvtable.Table {
	t.Helper()
	tbl, err := csvtable.Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	return tbl
}

// placesServer answers text searches whose query contains a key of ids with
// that place id, and details requests from details.
func placesServer(t *testing.T, ids map[string]string, details map[string]string) *places.Client {
	t.Helper()
	found := make(map[string]string, len(ids))
	for name, id := range ids {
		found[name] = fmt.Sprintf(`{"id":%q}`, id)
	}
	return placesStub(t, found, details)
}

// placesStub is placesServer with the raw place JSON returned for each search.
func placesStub(t *testing.T, found map[string]string, details map[string]string) *places.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost && r.URL.Path == "/v1/places:searchText" {
			body, _ := io.ReadAll(r.Body)
			for name, place := range found {
				if strings.Contains(string(body), name) {
					fmt.Fprintf(w, `{"places":[%s]}`, place)
					return
				}
			}
			io.WriteString(w, `{}`)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/v1/places/")
		if d, ok := details[id]; ok {
			io.WriteString(w, d)
			return
		}
		http.Error(w, `{"error":{"message":"not found"}}`, http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return places.NewClient("test-key", places.WithBaseURL(srv.URL))
}

func TestEnrichTable(t *testing.T) {
	pc := placesServer(t,
		map[string]string{"Alpine Domes": "p1"},
		map[string]string{"p1": `{"internationalPhoneNumber":"+1 970-555-0100","websiteUri":"https://alpine.example","dineIn":false}`},
	)
	store := &fakeStore{rows: []supabase.Row{
		{"id": float64(1), "property_name": "Alpine Domes", "city": "Leadville", "state": "CO"},
		{"id": float64(2), "property_name": "Nowhere Camp", "city": "Nowhere", "state": "ZZ"},
		{"id": float64(3), "property_name": ""},
	}}

	tally, err := enrichTable(context.Background(), io.Discard, store, pc, enrichOptions{Table: types.TableProperties})
	if err != nil {
		t.Fatalf("enrichTable error: %v", err)
	}
	if tally.Updated != 1 || tally.NotFound != 1 || tally.Skipped != 1 {
		t.Fatalf("expected 1 updated, 1 not found, 1 skipped, got %+v", tally)
	}
	fields := store.updates[1]
	if fields["google_phone_number"] != "+1 970-555-0100" || fields["google_dine_in"] != false {
		t.Fatalf("unexpected update fields: %v", fields)
	}
	if _, ok := store.updates[2]; ok {
		t.Fatalf("expected no update for the unmatched property")
	}
}

func TestEnrichTableSkipExisting(t *testing.T) {
	pc := placesServer(t, nil, nil)
	store := &fakeStore{rows: []supabase.Row{
		{"id": float64(1), "property_name": "Has Phone", "google_phone_number": "+1 555"},
		{"id": float64(2), "property_name": "Has Site", "google_website_uri": "https://x.example"},
	}}
	tally, err := enrichTable(context.Background(), io.Discard, store, pc, enrichOptions{SkipExisting: true})
	if err != nil {
		t.Fatalf("enrichTable error: %v", err)
	}
	if tally.Total() != 0 {
		t.Fatalf("expected nothing to process, got %+v", tally)
	}
}

func TestFillMissingURLs(t *testing.T) {
	pc := placesServer(t,
		map[string]string{"Cedar Cabins": "c1"},
		map[string]string{"c1": `{"websiteUri":"https://cedar.example"}`},
	)
	store := &fakeStore{rows: []supabase.Row{
		{"id": float64(1), "property_name": "Alpine Domes", "google_website_uri": "https://alpine.example"},
		{"id": float64(2), "property_name": "Cedar Cabins", "city": "Bend", "state": "OR"},
		{"id": float64(3), "property_name": "Done", "url": "https://done.example"},
		{"id": float64(4), "property_name": "Lost Camp"},
	}}

	res, err := fillMissingURLs(context.Background(), io.Discard, store, pc, types.TableProperties, 0)
	if err != nil {
		t.Fatalf("fillMissingURLs error: %v", err)
	}
	if res.FromGoogleURI != 1 || res.FromAPI != 1 || res.NotFound != 1 || res.Total != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if store.updates[1]["url"] != "https://alpine.example" {
		t.Fatalf("expected url copied from google_website_uri, got %v", store.updates[1])
	}
	if got := store.updates[2]; got["url"] != "https://cedar.example" || got["google_website_uri"] != "https://cedar.example" {
		t.Fatalf("expected both columns set from Places, got %v", got)
	}
	if _, ok := store.updates[3]; ok {
		t.Fatalf("expected row with a url to be left alone")
	}
}

func TestDescribeTable(t *testing.T) {
	long := strings.Repeat("Canvas tents above the river with wood stoves. ", 20)
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/short" {
			io.WriteString(w, "<html><body>Hi</body></html>")
			return
		}
		io.WriteString(w, "<html><body><main>"+long+"</main></body></html>")
	}))
	defer site.Close()

	var prompts []string
	ai := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) > 0 {
			prompts = append(prompts, req.Messages[0].Content)
		}
		io.WriteString(w, `{"choices":[{"message":{"content":"\"Riverside tents with wood stoves. Quiet nights. Easy hikes.\""}}]}`)
	}))
	defer ai.Close()

	store := &fakeStore{rows: []supabase.Row{
		{"id": float64(1), "property_name": "River Camp", "google_website_uri": site.URL + "/"},
		{"id": float64(2), "property_name": "Old Camp", "google_website_uri": site.URL + "/", "description": "Already written."},
		{"id": float64(3), "property_name": "Tiny Site", "google_website_uri": site.URL + "/short"},
		{"id": float64(4), "property_name": "No Site"},
	}}
	d := describer{gen: llm.NewOpenAIClient("sk-test", "").WithBaseURL(ai.URL), fetch: site.Client()}

	tally, err := describeTable(context.Background(), io.Discard, store, d, describeOptions{})
	if err != nil {
		t.Fatalf("describeTable error: %v", err)
	}
	if tally.Updated != 1 || tally.Errors != 1 {
		t.Fatalf("expected 1 updated and 1 failed, got %+v", tally)
	}
	if got := store.updates[1]["description"]; got != "Riverside tents with wood stoves. Quiet nights. Easy hikes." {
		t.Fatalf("unexpected description %q", got)
	}
	if len(prompts) != 1 || !strings.Contains(prompts[0], "River Camp") {
		t.Fatalf("expected one prompt naming the property, got %d", len(prompts))
	}

	tally, err = describeTable(context.Background(), io.Discard, store, d, describeOptions{Overwrite: true, Limit: 2})
	if err != nil {
		t.Fatalf("describeTable error: %v", err)
	}
	if tally.Updated != 2 {
		t.Fatalf("expected overwrite to regenerate 2 descriptions, got %+v", tally)
	}
}

func TestApplyCoordinates(t *testing.T) {
	cmp := parseTable(t, `Property Name,Site Name,Latitude,Longitude,Fetched Latitude,Fetched Longitude,Distance (km),Coordinate Match
Alpine,Dome 1,,,40.1,-105.1,,No Existing
Birch,A,39,-104,39.5,-104.5,60.000,Mismatch
Cedar,A,39,-104,39.0001,-104,0.011,Match
Dune,A,39,-104,39.004,-104,0.500,Mismatch
Elm,A,39,-104,,,,
`)
	target := parseTable(t, `Property Name,Site Name,Latitude,Longitude
Alpine,Dome 1,,
Birch,A,39,-104
Cedar,A,39,-104
Dune,A,39,-104
Elm,A,39,-104
Fir,A,38,-103
`)
	stats, err := applyCoordinates(cmp, target, 1.0)
	if err != nil {
		t.Fatalf("applyCoordinates error: %v", err)
	}
	want := applyStats{Total: 6, UpdatedMismatches: 1, UpdatedNoExisting: 1, Kept: 2, NotFound: 2}
	if stats != want {
		t.Fatalf("expected %+v, got %+v", want, stats)
	}
	if target.Value(0, types.ColLatitude) != "40.1" || target.Value(1, types.ColLongitude) != "-104.5" {
		t.Fatalf("expected fetched coordinates copied, got %v / %v", target.Records[0], target.Records[1])
	}
	if target.Value(3, types.ColLatitude) != "39" {
		t.Fatalf("expected small mismatch kept, got %q", target.Value(3, types.ColLatitude))
	}
}

func TestCoordinateColumns(t *testing.T) {
	tbl := csvtable.New([]string{"Property Name", "lat", "lon"})
	lat, lon, err := coordinateColumns(tbl)
	if err != nil || lat != "lat" || lon != "lon" {
		t.Fatalf("expected lat/lon fallback, got %q %q %v", lat, lon, err)
	}
	if _, _, err := coordinateColumns(csvtable.New([]string{"Property Name"})); err == nil {
		t.Fatalf("expected error without coordinate columns")
	}
}

func TestValidateRegions(t *testing.T) {
	tbl := parseTable(t, `Property Name,State,Latitude,Longitude
Denver Domes,CO,39.74,-104.99
Wrong Place,CO,30.27,-97.74
Mystery,ZZ,39.74,-104.99
Blank,CO,,
Garbage,CO,abc,-104
`)
	res, err := validateRegions(tbl, geo.RoughBounds)
	if err != nil {
		t.Fatalf("validateRegions error: %v", err)
	}
	if res.Checked != 3 || res.Unknown != 1 || res.Missing != 1 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	if len(res.Issues) != 2 {
		t.Fatalf("expected 2 issues, got %+v", res.Issues)
	}
	if res.Issues[0].Name != "Wrong Place" || res.Issues[0].Problem != "outside CO" {
		t.Fatalf("unexpected first issue: %+v", res.Issues[0])
	}
	if res.Issues[1].Problem != "invalid coordinates" {
		t.Fatalf("unexpected second issue: %+v", res.Issues[1])
	}
}

func TestFixStates(t *testing.T) {
	tbl := parseTable(t, `Property Name,City,State,Zip Code
A,Denver,Colorado,
B,nc,Asheville,
C,Moab,,84532
D,Town,Somewhere Else,
E,Bend,OR,
`)
	res := fixStates(tbl)
	if res.Fixed != 2 || res.Swapped != 1 || res.Unresolved != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if tbl.Value(0, types.ColState) != "CO" {
		t.Fatalf("expected CO, got %q", tbl.Value(0, types.ColState))
	}
	if tbl.Value(1, types.ColState) != "NC" || tbl.Value(1, types.ColCity) != "Asheville" {
		t.Fatalf("expected swap repaired, got %v", tbl.Records[1])
	}
	if tbl.Value(2, types.ColState) != "" {
		t.Fatalf("expected empty state to be left alone")
	}
}

func TestFixURLs(t *testing.T) {
	tbl := parseTable(t, `Property Name,Url,Google Website URI
Alpine,not a url,https://alpine.example
Alpine,www.alpine,
Cedar,bad,
Dune,,https://dune.example
Elm,https://elm.example,
`)
	res := fixURLs(tbl)
	if res.Invalid != 3 || res.Fixed != 3 || res.FromRow != 2 || res.FromLookup != 1 || res.Blanked != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	want := []string{"https://alpine.example", "https://alpine.example", "", "https://dune.example", "https://elm.example"}
	for i, w := range want {
		if got := tbl.Value(i, types.ColURL); got != w {
			t.Fatalf("row %d: expected %q, got %q", i, w, got)
		}
	}
}

func TestPruneCandidates(t *testing.T) {
	rows := []supabase.Row{
		{"id": float64(1), "property_name": "A", "url": "https://www.AIRBNB.com/rooms/1"},
		{"id": float64(2), "property_name": "B", "google_website_uri": "https://hipcamp.com/land/2"},
		{"id": float64(3), "property_name": "C", "url": "https://c.example"},
	}
	got := pruneCandidates(rows)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if pruneURL(got[1]) != "https://hipcamp.com/land/2" {
		t.Fatalf("expected the blocked url to be shown, got %q", pruneURL(got[1]))
	}
}

func TestConfirmYes(t *testing.T) {
	if !confirmYes(strings.NewReader("YES\n"), io.Discard, 3) {
		t.Fatalf("expected YES to confirm")
	}
	if confirmYes(strings.NewReader("y\n"), io.Discard, 3) {
		t.Fatalf("expected y to be refused")
	}
	if confirmYes(strings.NewReader(""), io.Discard, 3) {
		t.Fatalf("expected empty input to be refused")
	}
}

func TestCombineTables(t *testing.T) {
	a := parseTable(t, "Property Name,City\nAlpine,Leadville\nBirch,Bend\n")
	b := parseTable(t, "Property Name,Unit Type\nAlpine,Dome\n")
	photos := make([]any, 7)
	for i := range photos {
		photos[i] = map[string]any{"name": fmt.Sprintf("places/p/photos/%d", i)}
	}
	lookup := buildGoogleLookup([]supabase.Row{
		{"property_name": "Alpine", "google_phone_number": nil, "google_dine_in": nil},
		{"property_name": "Alpine", "google_phone_number": "+1 719", "google_dine_in": true, "google_takeout": false,
			"google_place_types": `["lodging","campground"]`, "google_photos": photos},
		{"property_name": "Alpine", "google_phone_number": "+1 000"},
		{"property_name": ""},
	})
	if len(lookup) != 1 || lookup["Alpine"].String("google_phone_number") != "+1 719" {
		t.Fatalf("expected the row with the most google data, got %v", lookup)
	}

	out, matched := combineTables([]*csvtable.Table{a, b}, lookup)
	if matched != 2 || out.Len() != 3 {
		t.Fatalf("expected 2 matches over 3 rows, got %d over %d", matched, out.Len())
	}
	if len(out.Header) != 3+len(combineColumns) {
		t.Fatalf("unexpected header width %d", len(out.Header))
	}
	if out.Header[0] != "City" || out.Header[2] != "Unit Type" || out.Header[3] != "Google Delivery" {
		t.Fatalf("unexpected header order %v", out.Header[:4])
	}
	checks := map[string]string{
		"Google Dine In":      "Yes",
		"Google Takeout":      "No",
		"Google Delivery":     "",
		"Google Place Types":  "lodging, campground",
		"Google Photos Count": "7",
		"Unit Type":           "",
	}
	for col, want := range checks {
		if got := out.Value(0, col); got != want {
			t.Fatalf("%s: expected %q, got %q", col, want, got)
		}
	}
	var top []any
	if err := json.Unmarshal([]byte(out.Value(0, "Google Photos")), &top); err != nil || len(top) != 5 {
		t.Fatalf("expected 5 photos as JSON, got %q", out.Value(0, "Google Photos"))
	}
	if out.Value(1, "Google Phone Number") != "" || out.Value(1, "City") != "Bend" {
		t.Fatalf("expected unmatched row without google data, got %v", out.Map(1))
	}
	if out.Value(2, "Unit Type") != "Dome" {
		t.Fatalf("expected second file's columns kept, got %v", out.Map(2))
	}
}

func TestTableSnapshot(t *testing.T) {
	snap := tableSnapshot("all_glamping_properties", []supabase.Row{
		{"id": float64(1), "b": "x", "a": []any{"p"}},
		{"id": float64(2), "c": true},
	})
	want := []string{"id", "a", "b", "c"}
	if strings.Join(snap.Columns, ",") != strings.Join(want, ",") {
		t.Fatalf("expected columns %v, got %v", want, snap.Columns)
	}
	if got := strings.Join(snap.Rows[0], "|"); got != `1|["p"]|x|` {
		t.Fatalf("unexpected first row %q", got)
	}
	if got := strings.Join(snap.Rows[1], "|"); got != "2|||true" {
		t.Fatalf("unexpected second row %q", got)
	}
}

func TestSourceFilter(t *testing.T) {
	tbl := parseTable(t, "Property Name,Source\nA,Postcard Cabins\nB,Sage\n")
	if sourceFilter(tbl, "  ") != nil {
		t.Fatalf("expected nil filter for a blank source")
	}
	only := sourceFilter(tbl, "postcard cabins")
	if !only(0) || only(1) {
		t.Fatalf("expected case-insensitive source match")
	}
}

func TestHelpers(t *testing.T) {
	for n, want := range map[int]string{0: "0", 999: "999", 1234: "1,234", 1234567: "1,234,567", -1234: "-1,234"} {
		if got := thousands(n); got != want {
			t.Fatalf("thousands(%d): expected %s, got %s", n, want, got)
		}
	}
	if got := suffixed("data/x.csv", "_UPDATED"); got != "data/x_UPDATED.csv" {
		t.Fatalf("unexpected suffixed path %q", got)
	}
	if got := outputPath("", "in.csv"); got != "in.csv" {
		t.Fatalf("expected in-place output, got %q", got)
	}
	if got := selectLimit(5, true); got != 0 {
		t.Fatalf("expected no select limit when filtering, got %d", got)
	}
	rows := []supabase.Row{{"id": 1.0}, {"id": 2.0}, {"id": 3.0}}
	if got := limitRows(rows, 2); len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got := head([]int{1, 2, 3}, 5); len(got) != 3 {
		t.Fatalf("expected head to keep short slices, got %v", got)
	}
}

func TestRatingString(t *testing.T) {
	stars, reviews := 4.5, 1234
	if got := (rating{Stars: &stars, Reviews: &reviews}).String(); got != "4.5 stars, 1,234 reviews" {
		t.Fatalf("unexpected rating text %q", got)
	}
}

func TestUpdateError(t *testing.T) {
	if got := updateError(supabase.ErrNoRowsUpdated); got != "Update failed" {
		t.Fatalf("unexpected message %q", got)
	}
	got := updateError(fmt.Errorf("update: %w", &supabase.APIError{Status: http.StatusBadRequest, Message: "column missing"}))
	if !strings.Contains(got, "check that the columns exist") {
		t.Fatalf("expected column hint, got %q", got)
	}
}

func TestCompareCoordinates(t *testing.T) {
	at := func(lat, lon float64) string {
		return fmt.Sprintf(`{"id":"x","location":{"latitude":%v,"longitude":%v}}`, lat, lon)
	}
	// 0.0089 degrees of latitude is about 0.99 km, 0.0090 about 1.0008 km.
	pc := placesStub(t, map[string]string{
		"Near Camp":    at(38.0089, -109.0),
		"Far Camp":     at(38.0090, -109.0),
		"Fresh Camp":   at(38.5, -109.5),
		"Garbled Camp": at(38.5, -109.5),
		"Broken Camp":  at(38.5, -109.5),
	}, nil)
	tbl := parseTable(t, "Property Name,State,Latitude,Longitude\r\n"+
		"Near Camp,UT,38.0,-109.0\r\n"+
		"Far Camp,UT,38.0,-109.0\r\n"+
		"Fresh Camp,UT,,\r\n"+
		"Garbled Camp,UT,abc,-109.5\r\n"+
		"Broken Camp,UT,95,-109.5\r\n"+
		"Lost Camp,UT,38.0,-109.0\r\n"+
		",UT,38.0,-109.0\r\n")

	stats, err := compareCoordinates(context.Background(), io.Discard, pc, tbl, 0)
	if err != nil {
		t.Fatalf("compareCoordinates error: %v", err)
	}
	want := compareStats{Total: 7, Fetched: 5, NotFound: 1, Errors: 1, Matches: 1, Mismatches: 1, NoExisting: 1, CannotCompare: 1}
	if stats != want {
		t.Fatalf("expected %+v, got %+v", want, stats)
	}

	cases := []struct {
		row      int
		status   string
		distance string
	}{
		{0, types.CoordMatch, "0.990"},
		{1, types.CoordMismatch, "1.001"},
		{2, types.CoordNoExisting, ""},
		{3, types.CoordCannotCompare, ""},
		{4, types.CoordError, ""},
		{5, "", ""},
	}
	for _, c := range cases {
		if got := tbl.Value(c.row, types.ColCoordinateMatch); got != c.status {
			t.Fatalf("row %d: expected status %q, got %q", c.row, c.status, got)
		}
		if got := tbl.Value(c.row, types.ColDistanceKm); got != c.distance {
			t.Fatalf("row %d: expected distance %q, got %q", c.row, c.distance, got)
		}
	}
	if got := tbl.Value(2, types.ColFetchedLatitude); got != "38.5" {
		t.Fatalf("expected fetched latitude 38.5, got %q", got)
	}
	if got := tbl.Value(5, types.ColFetchedLatitude); got != "" {
		t.Fatalf("expected no fetched latitude for the unmatched row, got %q", got)
	}

	var summary strings.Builder
	stats.Summary(&summary)
	if !strings.Contains(summary.String(), "Cannot compare: 1") {
		t.Fatalf("expected cannot-compare count in summary, got %q", summary.String())
	}
}

func TestRatingsTableSkipExisting(t *testing.T) {
	pc := placesStub(t, map[string]string{
		"Star Lodge": `{"id":"s1","rating":4.6,"userRatingCount":120}`,
		"Quiet Yurt": `{"id":"q1"}`,
		"Rated Camp": `{"id":"r1","rating":1.0,"userRatingCount":2}`,
	}, map[string]string{
		"q1": `{"id":"q1","rating":4.2}`,
	})
	store := &fakeStore{rows: []supabase.Row{
		{"id": float64(1), "property_name": "Star Lodge", "city": "Moab", "state": "UT"},
		{"id": float64(2), "property_name": "Quiet Yurt", "city": "Kanab", "state": "UT"},
		{"id": float64(3), "property_name": "Rated Camp", "google_rating": 4.9},
		{"id": float64(4), "property_name": "Ghost Camp"},
	}}

	tally, err := ratingsTable(context.Background(), io.Discard, store, pc, enrichOptions{SkipExisting: true})
	if err != nil {
		t.Fatalf("ratingsTable error: %v", err)
	}
	if tally.Updated != 2 || tally.NotFound != 1 {
		t.Fatalf("expected 2 updated and 1 not found, got %+v", tally)
	}
	if f := store.updates[1]; f["google_rating"] != 4.6 || f["google_user_rating_total"] != 120 {
		t.Fatalf("unexpected search rating update: %v", f)
	}
	f := store.updates[2]
	if f["google_rating"] != 4.2 {
		t.Fatalf("expected details fallback rating 4.2, got %v", f)
	}
	if _, ok := f["google_user_rating_total"]; ok {
		t.Fatalf("expected no review count without one from Places, got %v", f)
	}
	if _, ok := store.updates[3]; ok {
		t.Fatalf("expected the existing rating to be kept")
	}
}

func TestRatingsFile(t *testing.T) {
	pc := placesStub(t, map[string]string{
		"Star Lodge": `{"id":"s1","rating":4.6,"userRatingCount":1200}`,
		"Rated Camp": `{"id":"r1","rating":1.0,"userRatingCount":2}`,
	}, nil)
	dir := t.TempDir()
	in := filepath.Join(dir, "props.csv")
	data := "Property Name,Url,City,Google Rating\r\n" +
		"Star Lodge,https://star.example,Moab,\r\n" +
		"Rated Camp,,Moab,4.9\r\n" +
		"Ghost Camp,,Moab,\r\n"
	if err := os.WriteFile(in, []byte(data), 0o644); err != nil {
		t.Fatalf("seed csv: %v", err)
	}

	out := filepath.Join(dir, "rated.csv")
	tally, err := ratingsFile(context.Background(), io.Discard, pc, in, out, 0, true)
	if err != nil {
		t.Fatalf("ratingsFile error: %v", err)
	}
	if tally.Updated != 1 || tally.Skipped != 1 || tally.NotFound != 1 {
		t.Fatalf("expected 1 updated, 1 skipped, 1 not found, got %+v", tally)
	}
	got, err := csvtable.Load(out)
	if err != nil {
		t.Fatalf("load output: %v", err)
	}
	if idx := got.Index(types.ColGoogleReviews); idx != got.Index(types.ColURL)+1 {
		t.Fatalf("expected review count after Url, got header %q", got.Header)
	}
	if got.Value(0, types.ColGoogleRating) != "4.6" || got.Value(0, types.ColGoogleReviews) != "1200" {
		t.Fatalf("unexpected rating for row 0: %v", got.Map(0))
	}
	if got.Value(1, types.ColGoogleRating) != "4.9" || got.Value(1, types.ColGoogleReviews) != "" {
		t.Fatalf("expected existing rating to be kept, got %v", got.Map(1))
	}
}

func TestPromptFromSharesReader(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("1\n2\n\n7\n"))
	opts := []string{"Remove row (duplicate)", "Keep row"}
	var got []int
	for i := 0; i < 4; i++ {
		got = append(got, promptFrom(r, io.Discard, "Possible duplicate", opts))
	}
	want := []int{0, 1, -1, -1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if promptFrom(r, io.Discard, "Possible duplicate", opts) != -1 {
		t.Fatalf("expected -1 at end of input")
	}
}
