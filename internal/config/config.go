package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

// EnvFiles are read in order. Variables already present in the environment,
// or set by an earlier file, are never overridden.
var EnvFiles = []string{".env.local", ".env"}

// Config holds credentials and endpoints for the maintenance commands.
type Config struct {
	GoogleAPIKey string

	SupabaseURL string
	SupabaseKey string
	// SupabaseDBURL enables the direct Postgres store when set.
	SupabaseDBURL string

	OpenAIKey   string
	OpenAIModel string

	S3 S3Config

	HTTPTimeout time.Duration
}

// S3Config points at an S3-compatible bucket for report uploads.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

// Enabled reports whether enough of the bucket config is present to upload.
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// LoadEnvFiles loads the given dotenv files, skipping any that do not exist.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the dotenv files and returns the resulting configuration.
func Load() (Config, error) {
	if err := LoadEnvFiles(EnvFiles...); err != nil {
		return Config{}, err
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the current process environment.
func FromEnv() Config {
	timeout, err := time.ParseDuration(getEnvOrDefault("GLAMP_HTTP_TIMEOUT", "10s"))
	if err != nil {
		timeout = 10 * time.Second
	}
	return Config{
		GoogleAPIKey:  os.Getenv("NEXT_PUBLIC_GOOGLE_MAPS_API_KEY"),
		SupabaseURL:   strings.TrimRight(os.Getenv("NEXT_PUBLIC_SUPABASE_URL"), "/"),
		SupabaseKey:   firstEnv("SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_SECRET_KEY"),
		SupabaseDBURL: os.Getenv("SUPABASE_DB_URL"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnvOrDefault("OPENAI_MODEL", "gpt-4o"),
		S3: S3Config{
			Endpoint:  os.Getenv("GLAMP_S3_ENDPOINT"),
			AccessKey: os.Getenv("GLAMP_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("GLAMP_S3_SECRET_KEY"),
			Bucket:    os.Getenv("GLAMP_S3_BUCKET"),
			PublicURL: os.Getenv("GLAMP_S3_PUBLIC_URL"),
		},
		HTTPTimeout: timeout,
	}
}

// RequireGoogle returns an error when the Places API key is missing.
func (c Config) RequireGoogle() error {
	if c.GoogleAPIKey == "" {
		return errors.New("NEXT_PUBLIC_GOOGLE_MAPS_API_KEY not found in environment (.env.local or .env)")
	}
	return nil
}

// RequireSupabase returns an error when the table endpoint or key is missing.
func (c Config) RequireSupabase() error {
	var missing []string
	if c.SupabaseURL == "" {
		missing = append(missing, "NEXT_PUBLIC_SUPABASE_URL")
	}
	if c.SupabaseKey == "" {
		missing = append(missing, "SUPABASE_SERVICE_ROLE_KEY or SUPABASE_SECRET_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("supabase credentials not found in environment: %s", strings.Join(missing, ", "))
	}
	return nil
}

// RequireOpenAI returns an error when the OpenAI key is missing.
func (c Config) RequireOpenAI() error {
	if c.OpenAIKey == "" {
		return errors.New("OPENAI_API_KEY not found in environment (.env.local or .env)")
	}
	return nil
}

// KeyRole returns the role claim of a legacy JWT-style Supabase key, such as
// "service_role" or "anon". The signature is not verified. Opaque keys
// (sb_secret_..., sb_publishable_...) are classified by prefix.
func KeyRole(key string) (string, error) {
	switch {
	case strings.HasPrefix(key, "sb_secret_"):
		return "service_role", nil
	case strings.HasPrefix(key, "sb_publishable_"):
		return "anon", nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(key, claims); err != nil {
		return "", fmt.Errorf("parse supabase key: %w", err)
	}
	role, _ := claims["role"].(string)
	if role == "" {
		return "", errors.New("supabase key has no role claim")
	}
	return role, nil
}

// MaskKey shortens a secret for display.
func MaskKey(key string) string {
	if len(key) <= 14 {
		return strings.Repeat("*", len(key))
	}
	return key[:10] + "..." + key[len(key)-4:]
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
