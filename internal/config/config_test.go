package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Scan.ConfidenceThreshold != 5.0 || cfg.Scan.Limit != 1000 {
		t.Errorf("scan defaults = %+v", cfg.Scan)
	}
	if !cfg.Scan.ParseDates || !cfg.Scan.IgnoreImprecise || !cfg.Scan.ExceptEmpty {
		t.Errorf("boolean scan defaults should all be true: %+v", cfg.Scan)
	}
	if !cfg.Rules.Builtin {
		t.Error("builtin rules should default on")
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 3190 {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
}

func TestLoad_OverridesAndMergedDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `rules:
  dirs:
    - /etc/semscan/rules
  builtin: true
  toggles:
    data_credit_card: false
scan:
  confidence_threshold: 10
  limit: 500
  dict_share: 10
  parse_dates: true
  ignore_imprecise: true
  except_empty: true
filters:
  langs: [en, ru]
server:
  host: 127.0.0.1
  port: 9999
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Scan.ConfidenceThreshold != 10 || cfg.Scan.Limit != 500 {
		t.Errorf("scan overrides = %+v", cfg.Scan)
	}
	if len(cfg.Rules.Dirs) != 1 || cfg.Rules.Dirs[0] != "/etc/semscan/rules" {
		t.Errorf("rule dirs = %v", cfg.Rules.Dirs)
	}
	if cfg.Rules.Toggles["data_credit_card"] {
		t.Error("toggle override lost")
	}
	if len(cfg.Filters.Langs) != 2 {
		t.Errorf("filters = %+v", cfg.Filters)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"threshold out of range", "scan:\n  confidence_threshold: 150\n  limit: 10\n  dict_share: 10\nserver:\n  host: x\n  port: 80\n"},
		{"zero limit", "scan:\n  confidence_threshold: 5\n  limit: 0\n  dict_share: 10\nserver:\n  host: x\n  port: 80\n"},
		{"bad port", "server:\n  host: x\n  port: 700000\nscan:\n  confidence_threshold: 5\n  limit: 10\n  dict_share: 10\n"},
		{"empty rule dir", "rules:\n  dirs: ['']\nscan:\n  confidence_threshold: 5\n  limit: 10\n  dict_share: 10\nserver:\n  host: x\n  port: 80\n"},
		{"malformed yaml", "scan: [not a mapping\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() succeeded, want error")
			}
		})
	}
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() failed: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() of written default failed: %v", err)
	}
	if cfg.Scan.ConfidenceThreshold != 5.0 || cfg.Server.Port != 3190 {
		t.Errorf("round-tripped defaults = %+v", cfg)
	}
}
