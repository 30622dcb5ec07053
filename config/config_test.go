package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `{
		"databases": {"postgres": {"url": "postgres://u:p@localhost:5432/studypath?sslmode=disable"}}
	}`)
	cfg := LoadConfig(path)

	if cfg.General.Listen != ":8080" {
		t.Fatalf("listen default: %q", cfg.General.Listen)
	}
	if cfg.Providers.Gemini.Model != "gemini-1.5-flash-latest" {
		t.Fatalf("model default: %q", cfg.Providers.Gemini.Model)
	}
	if cfg.Providers.Gemini.Timeout != 25*time.Second {
		t.Fatalf("timeout default: %v", cfg.Providers.Gemini.Timeout)
	}
	if cfg.Jobs.MinInputChars != 100 || cfg.Jobs.Watchdog != 30*time.Second || cfg.Jobs.Retention != 5*time.Minute {
		t.Fatalf("job defaults: %+v", cfg.Jobs)
	}
	if cfg.Databases.Redis.Enabled() {
		t.Fatalf("redis should be disabled by default")
	}
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeConfig(t, `{
		"general": {"listen": ":9000", "jwt_secret": "s3cret"},
		"providers": {"gemini": {"api_key": "key", "model": "gemini-1.5-pro-latest"}},
		"databases": {
			"postgres": {"host": "db", "dbname": "studypath"},
			"redis": {"host": "cache"}
		},
		"jobs": {"min_input_chars": 50, "watchdog": "10s", "retention": "1m"}
	}`)
	cfg := LoadConfig(path)

	if cfg.General.Listen != ":9000" || cfg.General.JWTSecret != "s3cret" {
		t.Fatalf("general: %+v", cfg.General)
	}
	if cfg.Providers.Gemini.Model != "gemini-1.5-pro-latest" {
		t.Fatalf("model: %q", cfg.Providers.Gemini.Model)
	}
	if got := cfg.Databases.Postgres.DSN(); got != "postgres://:@db:5432/studypath?sslmode=disable" {
		t.Fatalf("dsn: %q", got)
	}
	if !cfg.Databases.Redis.Enabled() || cfg.Databases.Redis.Addr() != "cache:6379" {
		t.Fatalf("redis: %+v", cfg.Databases.Redis)
	}
	if cfg.Jobs.Watchdog != 10*time.Second || cfg.Jobs.Retention != time.Minute {
		t.Fatalf("jobs: %+v", cfg.Jobs)
	}
}

func TestGeminiConfig_Validate(t *testing.T) {
	if err := (GeminiConfig{Model: "m"}).Validate(); err == nil {
		t.Fatalf("expected error for missing api key")
	}
	if err := (GeminiConfig{APIKey: "k", Model: "m"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestJobsConfig_Validate(t *testing.T) {
	if err := (JobsConfig{Watchdog: 0, Retention: time.Minute}).Validate(); err == nil {
		t.Fatalf("expected error for zero watchdog")
	}
	if err := (JobsConfig{Watchdog: time.Minute, Retention: time.Second}).Validate(); err == nil {
		t.Fatalf("expected error for retention shorter than watchdog")
	}
}
