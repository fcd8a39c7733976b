package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REELROOM_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppPort != 8080 || cfg.PageSize != 6 || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Watchlists.MediaIdentity != "id_type" || cfg.Watchlists.MissingUser != "error" {
		t.Fatalf("unexpected watchlist defaults %+v", cfg.Watchlists)
	}
	if cfg.Auth.RequireOwner || cfg.Auth.SweepInterval != time.Hour {
		t.Fatalf("unexpected auth defaults %+v", cfg.Auth)
	}
	if cfg.ObjectStore.Enabled() {
		t.Fatal("object store should be disabled without a bucket")
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("REELROOM_CONFIG", "")
	t.Setenv("REELROOM_PORT", "9090")
	t.Setenv("REELROOM_PAGE_SIZE", "12")
	t.Setenv("REELROOM_TMDB_TOKEN", "secret")
	t.Setenv("REELROOM_METADATA_CACHE_TTL", "2m")
	t.Setenv("REELROOM_AUTH_REQUIRE_OWNER", "true")
	t.Setenv("REELROOM_WATCHLIST_MEDIA_IDENTITY", "id")
	t.Setenv("REELROOM_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REELROOM_OBJECT_STORE_BUCKET", "posters")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppPort != 9090 || cfg.PageSize != 12 {
		t.Fatalf("expected overrides got %+v", cfg)
	}
	if cfg.TMDB.Token != "secret" || cfg.MetadataCacheTTL != 2*time.Minute {
		t.Fatalf("unexpected tmdb settings %+v ttl=%v", cfg.TMDB, cfg.MetadataCacheTTL)
	}
	if !cfg.Auth.RequireOwner || cfg.Watchlists.MediaIdentity != "id" {
		t.Fatalf("unexpected policy settings %+v %+v", cfg.Auth, cfg.Watchlists)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if !cfg.ObjectStore.Enabled() {
		t.Fatal("expected object store to be enabled")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reelroom.yaml")
	content := []byte("port: 7000\nlog_level: debug\nwatchlist:\n  missing_user: empty\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("REELROOM_CONFIG", path)
	t.Setenv("REELROOM_LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppPort != 7000 || cfg.Watchlists.MissingUser != "empty" {
		t.Fatalf("expected file values got %+v", cfg)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected environment to win over file, got %q", cfg.LogLevel)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("REELROOM_CONFIG", "")
	t.Setenv("REELROOM_LOG_LEVEL", "loud")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestLoadCORSOriginsFromYAMLList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reelroom.yaml")
	content := []byte("cors_origins:\n  - https://a.example\n  - https://b.example\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("REELROOM_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://a.example" || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("expected yaml list origins, got %v", cfg.CORSOrigins)
	}
}
