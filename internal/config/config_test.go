package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.PollInterval != 5*time.Second || cfg.FeedbackClearDelay != 2200*time.Millisecond {
		t.Errorf("unexpected timing defaults: %+v", cfg)
	}
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
base_url: http://10.0.0.5:5000
poll_interval: 10s
audit_log: /var/log/deauthwatch/audit.jsonl
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BaseURL != "http://10.0.0.5:5000" {
		t.Errorf("unexpected base_url %q", cfg.BaseURL)
	}
	if cfg.PollInterval != 10*time.Second {
		t.Errorf("unexpected poll_interval %v", cfg.PollInterval)
	}
	if cfg.Listen != ":8088" {
		t.Errorf("listen should keep its default, got %q", cfg.Listen)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"relative url", "base_url: localhost:5000"},
		{"no host", "base_url: http://"},
		{"zero interval", "poll_interval: 0s"},
		{"sub-second interval", "poll_interval: 500ms"},
		{"fractional interval", "poll_interval: 2500ms"},
		{"negative delay", "feedback_clear_delay: -1s"},
		{"bad yaml", "base_url: [unterminated"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParse_WholeSecondInterval(t *testing.T) {
	cfg, err := Parse([]byte("poll_interval: 1s"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PollInterval != time.Second {
		t.Errorf("unexpected poll_interval %v", cfg.PollInterval)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deauthwatch.yaml")
	if err := os.WriteFile(path, []byte("listen: 127.0.0.1:9999\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Listen != "127.0.0.1:9999" {
		t.Errorf("unexpected listen %q", cfg.Listen)
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
