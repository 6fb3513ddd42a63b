// Package config handles loading, validating, and writing the semscan
// configuration from ~/.semscan/config.yaml.
//
// The config defines:
//   - Rule directories and built-in rule toggles
//   - Scan defaults (confidence threshold, sample limit, filters)
//   - Server bind address for `semscan serve`
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level semscan configuration. Loaded from
// ~/.semscan/config.yaml, with sensible defaults for fields that are
// not explicitly set.
type Config struct {
	Rules   RulesConfig   `yaml:"rules"`
	Scan    ScanConfig    `yaml:"scan"`
	Filters FiltersConfig `yaml:"filters"`
	Server  ServerConfig  `yaml:"server"`
}

// RulesConfig defines where rule files come from and which built-in
// rules are active.
type RulesConfig struct {
	// Dirs are walked recursively for YAML rule files.
	Dirs []string `yaml:"dirs"`
	// Builtin disables the compiled-in rule set entirely when false.
	Builtin bool `yaml:"builtin"`
	// Toggles enables/disables individual built-in rules by id.
	Toggles map[string]bool `yaml:"toggles"`
}

// ScanConfig carries the scan defaults. CLI flags override these
// per invocation.
type ScanConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	Limit               int     `yaml:"limit"`
	DictShare           float64 `yaml:"dict_share"`
	StopOnMatch         bool    `yaml:"stop_on_match"`
	ParseDates          bool    `yaml:"parse_dates"`
	IgnoreImprecise     bool    `yaml:"ignore_imprecise"`
	ExceptEmpty         bool    `yaml:"except_empty"`
	// Fields is an allow-list of field names; glob patterns allowed.
	Fields []string `yaml:"fields"`
}

// FiltersConfig restricts which catalog rules scans see.
type FiltersConfig struct {
	Contexts  []string `yaml:"contexts"`
	Langs     []string `yaml:"langs"`
	Countries []string `yaml:"countries"`
}

// ServerConfig defines where `semscan serve` listens.
// Default: 127.0.0.1:3190 (loopback only — never bind to 0.0.0.0).
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Load reads and parses config.yaml from the given path.
// If the file doesn't exist, returns defaults (not an error).
// Invalid YAML or validation failures return an error.
func Load(path string) (*Config, error) {
	cfg := applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file — use defaults. Normal on first run
			// before `semscan` setup creates the file.
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// WriteDefault writes a default config.yaml with all fields populated
// and a comment header. Used by the first-run setup.
func WriteDefault(path string) error {
	cfg := applyDefaults()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}

	header := `# semscan configuration
#
# rules:
#   dirs:    Directories walked recursively for YAML rule files
#   builtin: Enable the compiled-in rule set
#   toggles: Enable/disable individual built-in rules by id
#
# scan:
#   confidence_threshold: Minimum confidence (percent) to report a match
#   limit:                Maximum rows sampled per scan
#   dict_share:           Dictionary-detection threshold (percent)
#   fields:               Allow-list of field names (glob patterns)
#
# filters:
#   contexts / langs / countries: Restrict which rules apply
#
# server:
#   host: Bind address for 'semscan serve' (default: 127.0.0.1, loopback only)
#   port: Listen port (default: 3190)

`
	return os.WriteFile(path, []byte(header+string(data)), 0o644)
}

// applyDefaults returns a Config with all fields set to their default
// values.
func applyDefaults() *Config {
	return &Config{
		Rules: RulesConfig{
			Builtin: true,
		},
		Scan: ScanConfig{
			ConfidenceThreshold: 5.0,
			Limit:               1000,
			DictShare:           10.0,
			ParseDates:          true,
			IgnoreImprecise:     true,
			ExceptEmpty:         true,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 3190,
		},
	}
}

// validate checks the config for logical errors after parsing.
func validate(cfg *Config) error {
	if cfg.Scan.ConfidenceThreshold < 0 || cfg.Scan.ConfidenceThreshold > 100 {
		return fmt.Errorf("scan.confidence_threshold %v outside [0,100]", cfg.Scan.ConfidenceThreshold)
	}
	if cfg.Scan.Limit < 1 {
		return fmt.Errorf("scan.limit must be at least 1")
	}
	if cfg.Scan.DictShare < 0 || cfg.Scan.DictShare > 100 {
		return fmt.Errorf("scan.dict_share %v outside [0,100]", cfg.Scan.DictShare)
	}
	if cfg.Server.Host == "" {
		return fmt.Errorf("server.host must not be empty")
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range (1-65535)", cfg.Server.Port)
	}
	for _, dir := range cfg.Rules.Dirs {
		if dir == "" {
			return fmt.Errorf("rules.dirs contains an empty path")
		}
	}
	return nil
}
