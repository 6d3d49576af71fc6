package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestLoadEnvFilesPrecedence(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, ".env.local")
	base := filepath.Join(dir, ".env")
	if err := os.WriteFile(local, []byte("GLAMP_TEST_A=local\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(base, []byte("GLAMP_TEST_A=base\nGLAMP_TEST_B=\"base-only\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("GLAMP_TEST_A")
		os.Unsetenv("GLAMP_TEST_B")
	})

	if err := LoadEnvFiles(local, filepath.Join(dir, "missing.env"), base); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("GLAMP_TEST_A"); got != "local" {
		t.Fatalf("expected .env.local to win, got %q", got)
	}
	if got := os.Getenv("GLAMP_TEST_B"); got != "base-only" {
		t.Fatalf("expected base-only, got %q", got)
	}
}

func TestProcessEnvWins(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, ".env.local")
	if err := os.WriteFile(local, []byte("GLAMP_TEST_C=file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GLAMP_TEST_C", "process")
	if err := LoadEnvFiles(local); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("GLAMP_TEST_C"); got != "process" {
		t.Fatalf("expected process value, got %q", got)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("NEXT_PUBLIC_SUPABASE_URL", "https://abc.supabase.co/")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "")
	t.Setenv("SUPABASE_SECRET_KEY", "sb_secret_123")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("GLAMP_HTTP_TIMEOUT", "bogus")

	cfg := FromEnv()
	if cfg.SupabaseURL != "https://abc.supabase.co" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.SupabaseURL)
	}
	if cfg.SupabaseKey != "sb_secret_123" {
		t.Fatalf("expected secret key fallback, got %q", cfg.SupabaseKey)
	}
	if cfg.OpenAIModel != "gpt-4o" {
		t.Fatalf("expected default model, got %q", cfg.OpenAIModel)
	}
	if cfg.HTTPTimeout.Seconds() != 10 {
		t.Fatalf("expected 10s default timeout, got %v", cfg.HTTPTimeout)
	}
	if err := cfg.RequireSupabase(); err != nil {
		t.Fatalf("expected supabase config to be complete, got %v", err)
	}
	if err := (Config{}).RequireGoogle(); err == nil {
		t.Fatalf("expected missing google key error")
	}
}

func TestKeyRole(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "service_role", "iss": "supabase"}).
		SignedString([]byte("not-the-real-secret"))
	if err != nil {
		t.Fatal(err)
	}
	role, err := KeyRole(tok)
	if err != nil || role != "service_role" {
		t.Fatalf("expected service_role, got %q (%v)", role, err)
	}
	if role, _ := KeyRole("sb_publishable_abc"); role != "anon" {
		t.Fatalf("expected anon for publishable key, got %q", role)
	}
	if _, err := KeyRole("not-a-jwt"); err == nil {
		t.Fatalf("expected error for malformed key")
	}
}

func TestMaskKey(t *testing.T) {
	if got := MaskKey("short"); got != "*****" {
		t.Fatalf("expected fully masked, got %q", got)
	}
	if got := MaskKey("eyJhbGciOiJIUzI1NiJ9.payload.sig"); got != "eyJhbGciOi....sig" {
		t.Fatalf("unexpected mask %q", got)
	}
}
