package storage

import (
	"context"
	"testing"

	appconfig "glampdata/internal/config"
)

func TestReportKeyAndURL(t *testing.T) {
	key := ReportKey("run-1", "/tmp/out/quality.xlsx")
	if key != "reports/run-1/quality.xlsx" {
		t.Fatalf("unexpected key %q", key)
	}
	if got := PublicURL("https://cdn.example.com", "b", key); got != "https://cdn.example.com/reports/run-1/quality.xlsx" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := PublicURL("", "b", key); got != "s3://b/reports/run-1/quality.xlsx" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestNewS3UploaderRequiresCredentials(t *testing.T) {
	if _, err := NewS3Uploader(context.Background(), appconfig.S3Config{Bucket: "b"}); err == nil {
		t.Fatalf("expected error without credentials")
	}
}
