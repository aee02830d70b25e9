package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsMatchDefault(t *testing.T) {
	for _, key := range []string{"PORT", "STORE_BACKEND", "WORDS_SOURCE", "ADVANCE_DELAY", "ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	want := Default()
	if cfg.Port != want.Port || cfg.StoreBackend != want.StoreBackend || cfg.AdvanceDelay != want.AdvanceDelay {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("ADVANCE_DELAY", "1s")
	t.Setenv("STORE_BACKEND", BackendBolt)
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != "8081" {
		t.Fatalf("expected port override, got %s", cfg.Port)
	}
	if cfg.AdvanceDelay != time.Second {
		t.Fatalf("expected 1s advance delay, got %s", cfg.AdvanceDelay)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("expected two origins, got %v", cfg.AllowedOrigins)
	}
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	cfg := Default()
	cfg.StoreBackend = BackendPostgres
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected postgres backend without DATABASE_URL to fail")
	}
	cfg.DatabaseURL = "postgres://localhost/doodleit"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	if !cfg.NeedsDatabase() {
		t.Fatal("expected postgres backend to need the database")
	}

	cfg = Default()
	cfg.StoreBackend = "redis"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown backend to fail")
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DOODLEIT_TEST_KEY=from-file\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("DOODLEIT_TEST_KEY", "from-env")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load .env: %v", err)
	}
	if got := os.Getenv("DOODLEIT_TEST_KEY"); got != "from-env" {
		t.Fatalf("expected existing value to win, got %q", got)
	}
}

func TestValidateOriginsAndLimits(t *testing.T) {
	cfg := Default()
	cfg.AllowedOrigins = []string{"https://doodle.example", "http://localhost:8080"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected http(s) origins to pass, got %v", err)
	}
	cfg.AllowedOrigins = []string{"doodle.example"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected scheme-less origin to fail")
	}

	cfg = Default()
	cfg.EventBurst = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected zero burst to fail")
	}
}
