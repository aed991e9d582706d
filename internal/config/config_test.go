package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://backend.example/api/")
	t.Setenv("APP_ENV", "dev")
	t.Setenv("ASSET_BASE_URL", "")
	t.Setenv("PER_PAGE", "")
	t.Setenv("SEARCH_DEBOUNCE", "")
	t.Setenv("DOWNLOAD_PAUSE", "")
	t.Setenv("HTTP_TIMEOUT", "")
	t.Setenv("REALTIME_CHANNEL", "")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("REALTIME_URL", "")
	t.Setenv("RABBITMQ_URL", "amqp://broker/")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.APIBaseURL != "https://backend.example/api" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.AssetBaseURL != "https://backend.example" {
		t.Errorf("AssetBaseURL = %q", cfg.AssetBaseURL)
	}
	if d := SearchDebounce(); d != 300*time.Millisecond {
		t.Errorf("SearchDebounce = %s", d)
	}
	if cfg.DownloadPause != time.Second {
		t.Errorf("DownloadPause = %s", cfg.DownloadPause)
	}
	if cfg.PerPage != 12 {
		t.Errorf("PerPage = %d", cfg.PerPage)
	}
	if cfg.HTTPTimeout != 0 {
		t.Errorf("HTTPTimeout = %s, want none", cfg.HTTPTimeout)
	}
	if cfg.RealtimeURL != "amqp://broker/" {
		t.Errorf("RealtimeURL = %q", cfg.RealtimeURL)
	}
	if cfg.RealtimeChan != DefaultRealtimeChannel {
		t.Errorf("RealtimeChan = %q", cfg.RealtimeChan)
	}
	if cfg.SessionSecret == "" {
		t.Error("dev env should get a fallback session secret")
	}
}

func TestFromEnvRequiresAPIBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error without API_BASE_URL")
	}
}

func TestFromEnvRequiresSecretOutsideDev(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://backend.example/api")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("SESSION_SECRET", "")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error without SESSION_SECRET in prod")
	}
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "0")
	t.Setenv("RATE_LIMIT_RATE", "4")
	t.Setenv("RATE_LIMIT_PERIOD", "2s")
	t.Setenv("RATE_LIMIT_KEY", " IP, ,route ")
	cfg := LoadRateLimitConfig()
	if cfg.Burst != 1 {
		t.Errorf("Burst = %d, want 1", cfg.Burst)
	}
	if cfg.Interval() != 500*time.Millisecond {
		t.Errorf("Interval = %s, want 500ms", cfg.Interval())
	}
	if len(cfg.KeyBy) != 2 || cfg.KeyBy[0] != "ip" || cfg.KeyBy[1] != "route" {
		t.Errorf("KeyBy = %v", cfg.KeyBy)
	}
}

func TestParseMethods(t *testing.T) {
	m := parseMethods(" get, head ,,")
	if !m["GET"] || !m["HEAD"] || len(m) != 2 {
		t.Fatalf("parseMethods = %v", m)
	}
}
