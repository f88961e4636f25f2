package cmd

import (
	"strings"
	"testing"
)

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"all valid", []string{"AA:BB:CC:11:22:33", "aa:bb:cc:dd:ee:ff"}, ""},
		{"one invalid", []string{"AA:BB:CC:11:22:33", "AA-BB-CC-11-22-33"}, "1 of 2"},
		{"short group", []string{"aa:bb:cc:11:22:3"}, "1 of 1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := runValidate(validateCmd, tc.args)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Cleanup(func() { backendURL, logLevel = "", "" })
	backendURL = "http://10.0.0.5:5000"
	logLevel = "debug"

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.BaseURL != "http://10.0.0.5:5000" || cfg.LogLevel != "debug" {
		t.Errorf("flags not applied: %+v", cfg)
	}

	backendURL = "localhost:5000"
	if _, err := loadConfig(); err == nil {
		t.Error("expected relative backend URL to be rejected")
	}
}
