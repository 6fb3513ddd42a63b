// Package server exposes the classifier over HTTP for `semscan
// serve`:
//
//   - GET  /health        — liveness probe
//   - GET  /api/status    — rule counts and configuration summary
//   - GET  /api/rules     — active rules with their filter tags
//   - POST /api/classify  — classify records sent as {"records": [...]}
//   - GET  /ws            — live feed of classified columns; clients
//     may send {"fields": [...]} to subscribe to matching columns only
//
// The catalog and engine can be swapped at runtime — the rule watcher
// calls Reload when a rule file changes, and in-flight requests keep
// using the engine they started with.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/semscan/semscan/internal/catalog"
	"github.com/semscan/semscan/internal/classify"
	"github.com/semscan/semscan/internal/value"
)

// Options holds the dependencies injected into the server.
type Options struct {
	Catalog  *catalog.Catalog
	Engine   *classify.Engine
	ScanOpts classify.Options
	Version  string
}

// Server routes the HTTP API and owns the live-feed hub.
type Server struct {
	mu       sync.RWMutex
	cat      *catalog.Catalog
	engine   *classify.Engine
	scanOpts classify.Options
	version  string
	feed     *feedHub
}

// New creates a server and starts its live-feed hub.
func New(opts Options) *Server {
	s := &Server{
		cat:      opts.Catalog,
		engine:   opts.Engine,
		scanOpts: opts.ScanOpts,
		version:  opts.Version,
		feed:     newFeedHub(),
	}
	go s.feed.run()
	return s
}

// Reload swaps the catalog and engine. Called by the rule watcher
// after a catalog rebuild; requests started before the swap finish on
// the old engine.
func (s *Server) Reload(cat *catalog.Catalog, engine *classify.Engine) {
	s.mu.Lock()
	s.cat = cat
	s.engine = engine
	s.mu.Unlock()
	slog.Info("server catalog reloaded", "rules", cat.Len())
}

func (s *Server) current() (*catalog.Catalog, *classify.Engine, classify.Options) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cat, s.engine, s.scanOpts
}

// Handler returns the full route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/rules", s.handleRules)
	mux.HandleFunc("/api/classify", s.handleClassify)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// handleHealth implements the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "version": s.version})
}

// handleStatus returns rule counts and the scan defaults.
// GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}
	cat, _, scanOpts := s.current()
	writeJSON(w, map[string]any{
		"status":               "running",
		"version":              s.version,
		"total_rules":          cat.Len(),
		"load_issues":          len(cat.Issues()),
		"confidence_threshold": scanOpts.ConfidenceThreshold,
		"limit":                scanOpts.Limit,
	})
}

// ruleJSON is the wire shape of one rule in /api/rules.
type ruleJSON struct {
	ID        string   `json:"id"`
	Key       string   `json:"key"`
	Name      string   `json:"name,omitempty"`
	Type      string   `json:"type"`
	Match     string   `json:"match"`
	Context   string   `json:"context,omitempty"`
	Lang      string   `json:"lang,omitempty"`
	Countries []string `json:"countries,omitempty"`
	Priority  int      `json:"priority,omitempty"`
	Imprecise bool     `json:"imprecise,omitempty"`
	IsPII     bool     `json:"is_pii,omitempty"`
	Builtin   bool     `json:"builtin,omitempty"`
}

// handleRules lists the active rules.
// GET /api/rules
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}
	cat, _, _ := s.current()
	out := make([]ruleJSON, 0, cat.Len())
	for _, rule := range cat.Rules() {
		out = append(out, ruleJSON{
			ID:        rule.ID,
			Key:       rule.Key,
			Name:      rule.Name,
			Type:      string(rule.Type),
			Match:     string(rule.Match),
			Context:   rule.Context,
			Lang:      rule.Lang,
			Countries: rule.Countries,
			Priority:  rule.Priority,
			Imprecise: rule.Imprecise,
			IsPII:     rule.IsPII,
			Builtin:   rule.Builtin,
		})
	}
	writeJSON(w, out)
}

// classifyRequest is the POST /api/classify body: an ordered list of
// records plus an optional field order.
type classifyRequest struct {
	Records []map[string]any `json:"records"`
	// Fields pins the column order; JSON object keys lose their
	// order in decoding, so callers that care send it explicitly.
	Fields []string `json:"fields,omitempty"`
}

// handleClassify classifies an in-memory batch of records and
// broadcasts each classified column to the live feed.
// POST /api/classify
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Records) == 0 {
		http.Error(w, "no records provided", http.StatusBadRequest)
		return
	}

	recs := make([]value.Record, 0, len(req.Records))
	for _, m := range req.Records {
		recs = append(recs, value.RecordFromMap(req.Fields, m))
	}

	_, engine, scanOpts := s.current()
	report, err := engine.ScanRecords(r.Context(), recs, scanOpts)
	if err != nil {
		status := http.StatusInternalServerError
		var cfgErr *classify.ConfigError
		if errors.As(err, &cfgErr) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	for _, col := range report.Data {
		s.feed.publish(col)
	}
	writeJSON(w, report)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
