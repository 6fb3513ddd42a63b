// Package main is the CLI entry point for semscan — a rule-driven
// semantic classifier for tabular fields.
//
// semscan labels each field of a dataset with semantic datatypes
// (email, phone, country code, year, cadastral number, ...) plus a
// confidence score, by evaluating a YAML rule catalog against field
// names and a bounded sample of values, and by detecting date/time
// patterns.
//
// Pipeline overview:
//
//	file / sqlite table / HTTP body --> reader (records)
//	    --> analyzer (per-field stats)
//	    --> classify (field rules, data rules, date patterns)
//	    --> report (table / JSON)
//
// CLI commands (cobra):
//
//	semscan              - Interactive first-run setup
//	semscan scan         - Classify fields of a JSONL/CSV file
//	semscan scan-db      - Classify columns of a SQLite table
//	semscan rules        - List rules / test a value against them
//	semscan serve        - HTTP API + live WebSocket feed
//	semscan config       - View configuration
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/semscan/semscan/internal/catalog"
	"github.com/semscan/semscan/internal/classify"
	"github.com/semscan/semscan/internal/config"
	"github.com/semscan/semscan/internal/dateparse"
	"github.com/semscan/semscan/internal/reader"
	"github.com/semscan/semscan/internal/server"
)

// Build-time variables injected via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// defaultConfigDir returns the path to ~/.semscan/ where the config
// file and the default rules directory live.
func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fall back to current directory if home can't be determined.
		return ".semscan"
	}
	return filepath.Join(home, ".semscan")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// ============================================================================
// Root command
// ============================================================================

// configDir is the global flag for the semscan config directory.
var configDir string

// rootCmd is the top-level cobra command. When run with no
// subcommand, it performs first-run setup.
var rootCmd = &cobra.Command{
	Use:   "semscan",
	Short: "semscan — semantic datatype classifier for tabular data",
	Long: `semscan labels the fields of tabular data with semantic datatypes
(email, phone, country code, year, ...) and confidence scores. Rules
come from a compiled-in set plus YAML rule files; dates are detected
against a built-in pattern table.

Run 'semscan scan data.csv' to classify a file, or run 'semscan' with
no arguments for first-run setup.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFirstTimeSetup(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configDir,
		"config-dir",
		defaultConfigDir(),
		"Path to semscan config directory",
	)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(scanDBCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// loadStack loads the config, the rule catalog, and builds the
// classification engine. Shared by every scanning command.
func loadStack() (*config.Config, *catalog.Catalog, *classify.Engine, error) {
	cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Rule directories from config plus the conventional
	// ~/.semscan/rules/ if it exists.
	dirs := append([]string(nil), cfg.Rules.Dirs...)
	defaultRules := filepath.Join(configDir, "rules")
	if st, err := os.Stat(defaultRules); err == nil && st.IsDir() {
		dirs = append(dirs, defaultRules)
	}

	cat := catalog.Load(catalog.Options{
		Dirs:           dirs,
		Builtin:        cfg.Rules.Builtin,
		BuiltinToggles: cfg.Rules.Toggles,
	})

	engine := classify.New(cat, catalog.Filters{
		Contexts:  cfg.Filters.Contexts,
		Langs:     cfg.Filters.Langs,
		Countries: cfg.Filters.Countries,
	}, dateparse.New())

	return cfg, cat, engine, nil
}

// scanOptions merges config defaults with the scan command flags.
func scanOptions(cfg *config.Config) classify.Options {
	opts := classify.Options{
		ConfidenceThreshold: cfg.Scan.ConfidenceThreshold,
		StopOnMatch:         cfg.Scan.StopOnMatch,
		ParseDates:          cfg.Scan.ParseDates,
		IgnoreImprecise:     cfg.Scan.IgnoreImprecise,
		ExceptEmpty:         cfg.Scan.ExceptEmpty,
		Limit:               cfg.Scan.Limit,
		DictShare:           cfg.Scan.DictShare,
		Fields:              cfg.Scan.Fields,
	}
	if flagThreshold >= 0 {
		opts.ConfidenceThreshold = flagThreshold
	}
	if flagLimit > 0 {
		opts.Limit = flagLimit
	}
	if flagStopOnMatch {
		opts.StopOnMatch = true
	}
	if flagNoDates {
		opts.ParseDates = false
	}
	if flagIncludeImprecise {
		opts.IgnoreImprecise = false
	}
	if len(flagFields) > 0 {
		opts.Fields = flagFields
	}
	return opts
}

// ============================================================================
// semscan scan — Classify fields of a file
// ============================================================================

// Scan flag variables, shared by scan and scan-db.
var (
	flagThreshold        float64
	flagLimit            int
	flagStopOnMatch      bool
	flagNoDates          bool
	flagIncludeImprecise bool
	flagFields           []string
	flagFormat           string
)

// addScanFlags registers the shared scan tuning flags on a command.
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&flagThreshold, "threshold", -1, "Minimum confidence percent to report a match")
	cmd.Flags().IntVar(&flagLimit, "limit", 0, "Maximum rows to sample")
	cmd.Flags().BoolVar(&flagStopOnMatch, "stop-on-match", false, "Stop a field's data pass after the first match")
	cmd.Flags().BoolVar(&flagNoDates, "no-dates", false, "Disable date pattern detection")
	cmd.Flags().BoolVar(&flagIncludeImprecise, "include-imprecise", false, "Evaluate rules flagged imprecise")
	cmd.Flags().StringSliceVar(&flagFields, "fields", nil, "Only classify these fields (glob patterns)")
	cmd.Flags().StringVar(&flagFormat, "format", "table", "Output format: table or json")
}

// scanCmd classifies the fields of a JSONL or CSV file.
var scanCmd = &cobra.Command{
	Use:   "scan <file>",
	Short: "Classify fields of a JSONL/CSV file",
	Long: `Classify the fields of a data file. Supported formats: .jsonl,
.ndjson, .json (newline-delimited objects), .csv — optionally
compressed as .gz or .br.

Examples:
  semscan scan people.csv
  semscan scan events.jsonl.gz --limit 500 --format json
  semscan scan people.csv --fields 'email*' --threshold 20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := reader.Open(args[0])
		if err != nil {
			return err
		}
		defer src.Close()
		return runScan(cmd.Context(), src)
	},
}

func init() {
	addScanFlags(scanCmd)
}

// ============================================================================
// semscan scan-db — Classify columns of a SQLite table
// ============================================================================

// scanDBCmd classifies the columns of a table in a SQLite database.
var scanDBCmd = &cobra.Command{
	Use:   "scan-db <database> <table>",
	Short: "Classify columns of a SQLite table",
	Long: `Classify the columns of a table in a SQLite database file. The
database is opened read-only and at most --limit rows are sampled.

Example:
  semscan scan-db app.db users --limit 200`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		limit := cfg.Scan.Limit
		if flagLimit > 0 {
			limit = flagLimit
		}
		src, err := reader.OpenSQLite(args[0], args[1], limit)
		if err != nil {
			return err
		}
		defer src.Close()
		return runScan(cmd.Context(), src)
	},
}

func init() {
	addScanFlags(scanDBCmd)
}

// runScan drives a scan over any record source and renders the
// report. Ctrl+C cancels the scan cooperatively.
func runScan(ctx context.Context, src classify.Source) error {
	cfg, cat, engine, err := loadStack()
	if err != nil {
		return err
	}

	for _, iss := range cat.Issues() {
		fmt.Fprintf(os.Stderr, "[semscan] Warning: %s\n", iss)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := engine.Scan(ctx, src, scanOptions(cfg))
	if err != nil {
		return err
	}

	switch flagFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "table", "":
		printReportTable(report)
		return nil
	default:
		return fmt.Errorf("unknown format %q (use table or json)", flagFormat)
	}
}

// printReportTable renders the results projection as a fixed-width
// table.
func printReportTable(report *classify.ScanReport) {
	fmt.Printf("%-25s %-7s %-12s %-45s %s\n", "FIELD", "TYPE", "TAGS", "MATCHES", "DATATYPE URL")
	fmt.Printf("%-25s %-7s %-12s %-45s %s\n", "-----", "----", "----", "-------", "------------")
	for _, row := range report.Results {
		fmt.Printf("%-25s %-7s %-12s %-45s %s\n", row[0], row[1], row[2], row[3], row[4])
	}
}

// ============================================================================
// semscan rules — List and test rules
// ============================================================================

// rulesCmd is the parent command for rule operations.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List loaded rules or test a value against them",
	Long: `Inspect the active rule catalog. Rules come from the compiled-in set
and from YAML rule files in the configured rule directories (plus
~/.semscan/rules/ if present).`,
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesTestCmd)
}

// rulesListCmd shows all active rules.
var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all active rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cat, _, err := loadStack()
		if err != nil {
			return err
		}

		if cat.Len() == 0 {
			fmt.Println("No rules loaded.")
			return nil
		}

		fmt.Printf("%-22s %-20s %-6s %-5s %-10s %-7s %s\n", "ID", "KEY", "TYPE", "MATCH", "CONTEXT", "LANG", "ORIGIN")
		fmt.Printf("%-22s %-20s %-6s %-5s %-10s %-7s %s\n", "--", "---", "----", "-----", "-------", "----", "------")
		for _, r := range cat.Rules() {
			origin := r.File
			if r.Builtin {
				origin = "builtin"
			}
			fmt.Printf("%-22s %-20s %-6s %-5s %-10s %-7s %s\n",
				r.ID, r.Key, r.Type, r.Match, r.Context, r.Lang, origin)
		}

		for _, iss := range cat.Issues() {
			fmt.Fprintf(os.Stderr, "[semscan] Warning: %s\n", iss)
		}
		return nil
	},
}

// rulesTestCmd classifies a single value against all data rules —
// handy for checking what a rule file does before scanning with it.
var rulesTestCmd = &cobra.Command{
	Use:   "test <value>",
	Short: "Test a value against all data rules",
	Long: `Evaluate a single value against every data rule in the catalog and
print the keys that match.

Example:
  semscan rules test 'user@example.org'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cat, _, err := loadStack()
		if err != nil {
			return err
		}

		val := args[0]
		view := cat.Select(catalog.Filters{})
		matched := 0
		for _, r := range view.DataRules {
			if !r.InLenBounds(len(val)) {
				continue
			}
			if r.MatchValue(val) {
				marker := ""
				if r.Imprecise {
					marker = " (imprecise)"
				}
				fmt.Printf("%-20s %s%s\n", r.Key, r.ID, marker)
				matched++
			}
		}
		if m, ok := dateparse.New().MatchDate(val); ok {
			fmt.Printf("%-20s dt:%s:%s\n", "datetime", m.PatternID, m.Format)
			matched++
		}
		if matched == 0 {
			fmt.Println("No rules matched.")
		}
		return nil
	},
}

// ============================================================================
// semscan serve — HTTP API with live feed
// ============================================================================

// serveCmd starts the HTTP server. Rule files are watched for changes
// and the catalog hot-reloads without a restart.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the classification API over HTTP",
	Long: `Start the semscan HTTP server:

  GET  /health        - liveness probe
  GET  /api/status    - rule counts and configuration
  GET  /api/rules     - active rules
  POST /api/classify  - classify records sent as {"records": [...]}
  GET  /ws            - live feed of classified columns

The server binds to the address configured under server: in
~/.semscan/config.yaml (default 127.0.0.1:3190). Rule directories are
file-watched; editing a rule file reloads the catalog immediately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

// runServe wires the stack together and blocks until SIGINT/SIGTERM.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, cat, engine, err := loadStack()
	if err != nil {
		return err
	}
	fmt.Printf("[semscan] Loaded %d rules (%d issues)\n", cat.Len(), len(cat.Issues()))

	srv := server.New(server.Options{
		Catalog:  cat,
		Engine:   engine,
		ScanOpts: scanOptions(cfg),
		Version:  version,
	})

	// Watch the rule directories for hot reload. Watching is
	// best-effort: if any directory cannot be watched, the watcher is
	// not started and the server runs without hot reload.
	watchDirs := append([]string(nil), cfg.Rules.Dirs...)
	defaultRules := filepath.Join(configDir, "rules")
	if st, err := os.Stat(defaultRules); err == nil && st.IsDir() {
		watchDirs = append(watchDirs, defaultRules)
	}
	if len(watchDirs) > 0 {
		watcher, err := config.NewWatcher(watchDirs, func() {
			_, newCat, newEngine, reloadErr := loadStack()
			if reloadErr != nil {
				fmt.Fprintf(os.Stderr, "[semscan] Warning: rule reload failed: %v\n", reloadErr)
				return
			}
			srv.Reload(newCat, newEngine)
			fmt.Printf("[semscan] Rules reloaded (%d rules)\n", newCat.Len())
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "[semscan] Warning: rule watching disabled: %v\n", err)
		} else {
			defer watcher.Close()
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("[semscan] Listening on http://%s\n", addr)
		fmt.Println("[semscan] Press Ctrl+C to stop")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		fmt.Println("\n[semscan] Shutting down...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "[semscan] Shutdown error: %v\n", err)
	}
	fmt.Println("[semscan] Stopped")
	return nil
}

// ============================================================================
// semscan config — Configuration management
// ============================================================================

// configCmd is the parent command for configuration operations.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View semscan configuration",
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

// configShowCmd prints the current configuration to stdout.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := filepath.Join(configDir, "config.yaml")
		data, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Printf("No config file found at %s\n", configPath)
				fmt.Println("Run 'semscan' for first-run setup.")
				return nil
			}
			return fmt.Errorf("failed to read config: %w", err)
		}
		fmt.Println(string(data))
		return nil
	},
}

// ============================================================================
// First-run setup
// ============================================================================

// sampleRulesYAML is the starter rule file written by setup. It shows
// the full rule schema: grammar rules, field gating, and validators.
const sampleRulesYAML = `# semscan sample rules
# Each file carries defaults (context, lang, country_code) inherited
# by its rules. See 'semscan rules list' for the active catalog.
name: sample rules
description: starter rules demonstrating the rule schema
context: geo
lang: common
country_code: ru
rules:
  ru_cadastral_number:
    key: ru_cadastral
    name: Russian cadastral number
    type: data
    match: ppr
    rule: "Word(nums, min=2, max=2) + Literal(':') + Word(nums, min=2, max=2) + Literal(':') + Word(nums, min=6, max=7) + Literal(':') + Word(nums, min=1, max=5)"
    minlen: 14
    maxlen: 21
  inn_field:
    key: ru_inn
    name: Russian tax id (INN)
    type: field
    match: text
    rule: inn,tax_id,taxid
  card_number:
    key: credit_card
    name: Payment card number
    type: data
    match: ppr
    rule: Word(nums, min=13, max=19)
    validator: num.is_luhn
    fieldrule: card,card_number,pan
    is_pii: true
`

// runFirstTimeSetup runs when 'semscan' is invoked with no
// subcommand. It creates ~/.semscan/ with a default config.yaml and a
// rules/ directory holding the sample rule file.
func runFirstTimeSetup(cmd *cobra.Command, args []string) error {
	fmt.Println("=== semscan — First-Time Setup ===")
	fmt.Println()

	configPath := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config already exists at %s\n", configPath)
		fmt.Println("Use 'semscan scan <file>' to classify a dataset.")
		fmt.Println("Use 'semscan config show' to view the configuration.")
		return nil
	}

	fmt.Printf("Creating config directory: %s\n", configDir)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	fmt.Println("Writing default config.yaml...")
	if err := config.WriteDefault(configPath); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	rulesDir := filepath.Join(configDir, "rules")
	fmt.Println("Writing sample rules...")
	if err := os.MkdirAll(rulesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create rules directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(rulesDir, "sample.yaml"), []byte(sampleRulesYAML), 0o644); err != nil {
		return fmt.Errorf("failed to write sample rules: %w", err)
	}

	fmt.Println()
	fmt.Println("Setup complete! Next steps:")
	fmt.Println()
	fmt.Println("  1. Classify a dataset:")
	fmt.Println("     semscan scan data.csv")
	fmt.Println()
	fmt.Println("  2. Add your own rules:")
	fmt.Printf("     %s\n", filepath.Join(rulesDir, "sample.yaml"))
	fmt.Println()
	fmt.Println("  3. Or run the HTTP API:")
	fmt.Println("     semscan serve")
	fmt.Println()
	return nil
}
