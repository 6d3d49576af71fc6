package report

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"glampdata/internal/csvtable"

	"github.com/xuri/excelize/v2"
)

func mustParse(t *testing.T, s string) *csvtable.Table {
	t.Helper()
	tbl, err := csvtable.Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return tbl
}

const qualityCSV = "Property Name,Address,City,State,Latitude,Longitude,Url,Google Website URI,Google Phone Number\n" +
	"Camp A,1 Main,Moab,UT,38.5,-109.5,https://a.com/,http://A.com,+1 435 555 0100\n" +
	"Camp A,2 Main,Moab,UT,38.6,-109.6,a.com,,555-0100\n" +
	"Camp B,,Bend,Oregon,,,https://b.com,https://other.com,\n" +
	"Camp C,,Tofino,B1,200,50,,https://c.com,\n" +
	",,,,,,,,\n"

func TestAnalyzeQuality(t *testing.T) {
	q := AnalyzeQuality(mustParse(t, qualityCSV))

	if q.TotalRows != 5 || q.TotalColumns != 9 {
		t.Fatalf("unexpected overview %d rows %d cols", q.TotalRows, q.TotalColumns)
	}
	if len(q.Duplicates) != 1 || q.Duplicates[0].Name != "Camp A" || q.Duplicates[0].Count != 2 {
		t.Fatalf("unexpected duplicates %+v", q.Duplicates)
	}
	if q.MissingCoords != 2 {
		t.Fatalf("expected 2 missing coordinates, got %d", q.MissingCoords)
	}
	if len(q.InvalidCoords) != 1 || q.InvalidCoords[0].Row != 4 {
		t.Fatalf("unexpected invalid coords %+v", q.InvalidCoords)
	}
	if len(q.InvalidURLs) != 1 || q.InvalidURLs[0].Value != "a.com" {
		t.Fatalf("unexpected invalid urls %+v", q.InvalidURLs)
	}
	if len(q.InvalidPhones) != 1 || q.InvalidPhones[0].Value != "555-0100" {
		t.Fatalf("unexpected invalid phones %+v", q.InvalidPhones)
	}
	if strings.Join(q.UnusualStates, ",") != "OREGON,B1" {
		t.Fatalf("unexpected unusual states %v", q.UnusualStates)
	}
	if len(q.EmptyRows) != 1 || q.EmptyRows[0] != 5 {
		t.Fatalf("unexpected empty rows %v", q.EmptyRows)
	}
	if q.URLMatches != 1 || q.URLMismatches != 1 || q.GoogleOnly != 1 || q.OriginalOnly != 1 {
		t.Fatalf("unexpected url consistency %d/%d/%d/%d", q.URLMatches, q.URLMismatches, q.GoogleOnly, q.OriginalOnly)
	}

	var priorities []string
	for _, r := range q.Recommendations {
		priorities = append(priorities, string(r.Priority))
	}
	// duplicates, missing coords (40%), invalid coords, invalid urls, url mismatch, google only (20% is not > 20%), empty rows
	want := "HIGH,HIGH,HIGH,MEDIUM,LOW,HIGH"
	if strings.Join(priorities, ",") != want {
		t.Fatalf("expected %s, got %s", want, strings.Join(priorities, ","))
	}

	var buf bytes.Buffer
	q.WriteText(&buf)
	for _, s := range []string{"📊 FILE OVERVIEW", "1. [HIGH] 1 duplicate property names found", "ANALYSIS COMPLETE"} {
		if !strings.Contains(buf.String(), s) {
			t.Fatalf("expected report to contain %q", s)
		}
	}
}

func TestAnalyzeQualityClean(t *testing.T) {
	q := AnalyzeQuality(mustParse(t, "Property Name,Latitude,Longitude,Url\nA,1,2,https://a.com\n"))
	if len(q.Recommendations) != 0 {
		t.Fatalf("expected no recommendations, got %+v", q.Recommendations)
	}
	var buf bytes.Buffer
	q.WriteText(&buf)
	if !strings.Contains(buf.String(), "No major issues found") {
		t.Fatalf("expected clean message")
	}
}

func TestValidators(t *testing.T) {
	if !ValidURL("https://x.com/path") || ValidURL("www.x.com") || ValidURL("") {
		t.Fatalf("unexpected ValidURL results")
	}
	if !ValidPhone("(707) 555-0100") || !ValidPhone("+44") || ValidPhone("555-0100") {
		t.Fatalf("unexpected ValidPhone results")
	}
	if NormalizeURL("HTTPS://Example.com//") != "example.com" {
		t.Fatalf("unexpected NormalizeURL result")
	}
}

const comparedCSV = "Property Name,Site Name,City,State,Latitude,Longitude,Fetched Latitude,Fetched Longitude,Distance (km),Coordinate Match\n" +
	"M,,a,UT,1,1,1,1,0.200,Match\n" +
	"S,,a,UT,1,1,1,1,5.000,Mismatch\n" +
	"Med1,,a,UT,1,1,1,1,20.000,Mismatch\n" +
	"Med2,,a,UT,1,1,1,1,80.000,Mismatch\n" +
	"L1,,a,UT,1,1,1,1,150.000,Mismatch\n" +
	"L2,,a,UT,1,1,1,1,900.000,Mismatch\n" +
	"LX,,a,UT,1,1,1,1,n/a,Mismatch\n" +
	"E,,a,UT,1,1,1,1,,Mismatch\n" +
	"N,,a,UT,,,1,1,,No Existing\n" +
	"F,,a,UT,1,1,,,,\n"

func TestCoordinateBuckets(t *testing.T) {
	b := CoordinateBuckets(mustParse(t, comparedCSV))
	if b.Total != 10 || len(b.Matches) != 1 || len(b.NoExisting) != 1 || len(b.NotFound) != 1 {
		t.Fatalf("unexpected buckets %+v", b)
	}
	if len(b.Small) != 2 {
		t.Fatalf("expected empty distance to count as small, got %d", len(b.Small))
	}
	if len(b.Medium) != 2 || b.Medium[0].Name != "Med2" {
		t.Fatalf("expected medium sorted descending, got %+v", b.Medium)
	}
	if len(b.Large) != 3 || b.Large[0].Name != "L2" || b.Large[1].Name != "L1" {
		t.Fatalf("expected large sorted descending, got %+v", b.Large)
	}

	var buf bytes.Buffer
	b.WriteCoordinateReport(&buf)
	out := buf.String()
	if !strings.Contains(out, "⚠ Large Mismatches (>100km): 3 (30.0%)") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
	if strings.Index(out, "Property: L2") > strings.Index(out, "Property: L1") {
		t.Fatalf("expected L2 before L1")
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	b := CoordinateBuckets(mustParse(t, comparedCSV))
	if err := WriteXLSX(path, b.Sheets()...); err != nil {
		t.Fatalf("WriteXLSX error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) != 5 || names[0] != "Summary" {
		t.Fatalf("unexpected sheets %v", names)
	}
	rows, err := f.GetRows("Large Mismatches")
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 4 || rows[0][0] != "Property Name" || rows[1][0] != "L2" {
		t.Fatalf("unexpected rows %v", rows)
	}

	if err := WriteXLSX(path); err == nil {
		t.Fatalf("expected error with no sheets")
	}
}
