// Package classify is the classification engine: it composes the rule
// catalog, the field analyzer, and the date-parser capability into
// per-field semantic datatype matches with confidence scores.
//
// A scan is logically sequential but the engine is re-entrant —
// catalogs and compiled matchers are immutable, so any number of
// scans may share one engine from parallel goroutines.
package classify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/semscan/semscan/internal/analyzer"
	"github.com/semscan/semscan/internal/catalog"
	"github.com/semscan/semscan/internal/dateparse"
	"github.com/semscan/semscan/internal/value"
)

// ErrCancelled is returned when a scan's context is cancelled.
// Partial results are discarded.
var ErrCancelled = errors.New("scan cancelled")

// Source yields records to a scan. Next returns io.EOF when the
// sequence is exhausted. The reader package's sources satisfy this.
type Source interface {
	Next() (value.Record, error)
}

// sliceSource adapts an in-memory record slice to Source.
type sliceSource struct {
	recs []value.Record
	pos  int
}

func (s *sliceSource) Next() (value.Record, error) {
	if s.pos >= len(s.recs) {
		return value.Record{}, io.EOF
	}
	r := s.recs[s.pos]
	s.pos++
	return r, nil
}

// Engine evaluates scans against a fixed catalog and date parser.
type Engine struct {
	cat     *catalog.Catalog
	filters catalog.Filters // Context/lang/country restriction for every scan.
	dates   dateparse.Parser
}

// New creates an engine. filters restrict which catalog rules any
// scan through this engine sees (imprecise handling is per-scan, via
// Options). A nil dates parser disables the date pass.
func New(cat *catalog.Catalog, filters catalog.Filters, dates dateparse.Parser) *Engine {
	if dates == nil {
		dates = dateparse.Disabled{}
	}
	return &Engine{cat: cat, filters: filters, dates: dates}
}

// ScanRecords classifies an in-memory record slice.
func (e *Engine) ScanRecords(ctx context.Context, recs []value.Record, opts Options) (*ScanReport, error) {
	return e.Scan(ctx, &sliceSource{recs: recs}, opts)
}

// Scan samples up to opts.Limit records from src, analyzes every
// field, and evaluates the applicable rules. It returns a complete
// report or a single top-level error (ErrCancelled or a ConfigError);
// per-rule problems are carried in the report's issue side-channel,
// never thrown mid-loop.
func (e *Engine) Scan(ctx context.Context, src Source, opts Options) (*ScanReport, error) {
	fieldGlobs, err := opts.validate()
	if err != nil {
		return nil, err
	}

	recs, err := e.sample(ctx, src, opts.Limit)
	if err != nil {
		return nil, err
	}

	filters := e.filters
	filters.IgnoreImprecise = opts.IgnoreImprecise
	view := e.cat.Select(filters)

	var dateParser dateparse.Parser
	if opts.ParseDates {
		dateParser = e.dates
	}

	stats := analyzer.Analyze(recs, analyzer.Options{
		Limit:       opts.Limit,
		DictShare:   opts.DictShare,
		EmptyValues: opts.EmptyValues,
		ExceptEmpty: opts.ExceptEmpty,
		DateParser:  dateParser,
	})

	report := &ScanReport{
		Stats:  stats,
		Issues: append([]catalog.Issue(nil), e.cat.Issues()...),
	}

	empty := newEmptySet(opts.EmptyValues)
	for _, stat := range stats {
		if !fieldAllowed(stat.Field, fieldGlobs) {
			continue
		}
		col, issues, err := e.classifyField(ctx, stat, recs, view, empty, opts)
		if err != nil {
			return nil, err
		}
		report.Issues = append(report.Issues, issues...)
		report.Data = append(report.Data, col)
		report.Results = append(report.Results, resultRow(col))
	}

	slog.Debug("scan complete", "records", len(recs), "fields", len(report.Data), "rules", view.Len())
	return report, nil
}

// sample draws up to limit records, checking for cancellation between
// rows.
func (e *Engine) sample(ctx context.Context, src Source, limit int) ([]value.Record, error) {
	var recs []value.Record
	for len(recs) < limit {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading records: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// classifyField runs the field-name pass, the data pass, and the date
// pass for one column.
func (e *Engine) classifyField(ctx context.Context, stat analyzer.FieldStat, recs []value.Record, view *catalog.View, empty emptySet, opts Options) (ColumnReport, []catalog.Issue, error) {
	col := ColumnReport{
		Field: stat.Field,
		FType: stat.FType,
		Tags:  fieldTags(stat),
	}

	loweredField := strings.ToLower(stat.Field)

	// Field-name pass: a satisfied field rule is a certainty — the
	// author named the column after the datatype.
	for _, r := range view.FieldRules {
		if ctx.Err() != nil {
			return col, nil, ErrCancelled
		}
		if r.MatchValue(loweredField) {
			col.Matches = append(col.Matches, matchFromRule(r, 100.0))
		}
	}

	// Collect the field's sampled values once for the data and date
	// passes.
	values := make([]string, 0, len(recs))
	for _, rec := range recs {
		v := rec.Get(stat.Field)
		s := v.String()
		if opts.ExceptEmpty && empty.isEmpty(v, s) {
			continue
		}
		values = append(values, s)
	}

	var issues []catalog.Issue

	// Data-value pass.
	for _, r := range view.DataRules {
		if ctx.Err() != nil {
			return col, nil, ErrCancelled
		}
		if !r.MatchFieldName(loweredField) {
			continue
		}
		conf, considered, degraded := evalDataRule(r, values)
		if degraded {
			issues = append(issues, catalog.Issue{
				File:   r.File,
				RuleID: r.ID,
				Kind:   catalog.IssueRuntime,
				Detail: fmt.Sprintf("degraded on field %q: matcher failed on most candidates", stat.Field),
			})
			continue
		}
		// A rule with no candidates at all has nothing to say about
		// the field; a rule with candidates reports whatever
		// confidence clears the threshold — including 0.0 when the
		// caller sets the threshold to zero.
		if considered == 0 {
			continue
		}
		if conf >= opts.ConfidenceThreshold {
			col.Matches = append(col.Matches, matchFromRule(r, conf))
			if opts.StopOnMatch {
				break
			}
		}
	}

	// Date pass.
	if opts.ParseDates {
		col.Matches = append(col.Matches, e.evalDates(values, opts.ConfidenceThreshold)...)
	}

	sortMatches(col.Matches)
	if len(col.Matches) > 0 {
		col.DatatypeURL = DatatypeURL(col.Matches[0].Key)
	}
	return col, issues, nil
}

// evalDataRule applies one data rule over the field's sampled values.
// Returns the confidence percentage, the number of candidates
// examined, and whether the rule was degraded mid-sample.
//
// A value is a candidate iff its length satisfies the rule's bounds;
// values rejected by the bounds appear in neither the numerator nor
// the denominator. Matcher failures count as non-matches, and a rule
// failing on more than half of at least degradeMinExamined candidates
// is skipped for the rest of the sample.
func evalDataRule(r *catalog.Rule, values []string) (float64, int, bool) {
	const degradeMinExamined = 8

	hits, considered, failures := 0, 0, 0
	for _, s := range values {
		if !r.InLenBounds(len(s)) {
			continue
		}
		considered++
		matched, failed := safeMatch(r, s)
		if failed {
			failures++
			if considered >= degradeMinExamined && failures*2 > considered {
				return 0, considered, true
			}
			continue
		}
		if matched {
			hits++
		}
	}
	if considered == 0 {
		return 0, 0, false
	}
	return 100 * float64(hits) / float64(considered), considered, false
}

// safeMatch shields the scan loop from a matcher that panics on a
// hostile value — registered predicates are arbitrary code.
func safeMatch(r *catalog.Rule, s string) (matched, failed bool) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("matcher panic absorbed", "rule", r.ID, "error", rec)
			matched, failed = false, true
		}
	}()
	return r.MatchValue(s), false
}

// evalDates counts date-pattern hits per pattern id over the sampled
// values and emits one match per pattern reaching the threshold.
// Patterns report in first-appearance order.
func (e *Engine) evalDates(values []string, threshold float64) []MatchResult {
	if len(values) == 0 {
		return nil
	}
	type patternCount struct {
		match dateparse.Match
		hits  int
	}
	var order []string
	counts := make(map[string]*patternCount)

	for _, s := range values {
		m, ok := e.dates.MatchDate(s)
		if !ok {
			continue
		}
		pc, seen := counts[m.PatternID]
		if !seen {
			pc = &patternCount{match: m}
			counts[m.PatternID] = pc
			order = append(order, m.PatternID)
		}
		pc.hits++
	}

	var out []MatchResult
	for _, id := range order {
		pc := counts[id]
		conf := 100 * float64(pc.hits) / float64(len(values))
		if conf < threshold {
			continue
		}
		out = append(out, MatchResult{
			RuleID:         pc.match.PatternID,
			Key:            "datetime",
			RuleType:       catalog.DataRule,
			Confidence:     conf,
			DatatypeFormat: pc.match.Format,
		})
	}
	return out
}

// matchFromRule builds a MatchResult for a fired catalog rule.
func matchFromRule(r *catalog.Rule, conf float64) MatchResult {
	return MatchResult{
		RuleID:     r.ID,
		Key:        r.Key,
		RuleType:   r.Type,
		Confidence: conf,
		priority:   r.Priority,
	}
}

// sortMatches orders a column's matches: priority descending, then
// confidence descending, stable otherwise.
func sortMatches(matches []MatchResult) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].priority != matches[j].priority {
			return matches[i].priority > matches[j].priority
		}
		return matches[i].Confidence > matches[j].Confidence
	})
}

// fieldTags derives the report tags from a field's stats.
func fieldTags(stat analyzer.FieldStat) []string {
	var tags []string
	if stat.NonEmpty == 0 {
		return append(tags, "empty")
	}
	if stat.Unique == stat.NonEmpty {
		tags = append(tags, "uniq")
	}
	if stat.IsDictionary {
		tags = append(tags, "dict")
	}
	return tags
}

// fieldAllowed applies the field allow-list globs.
func fieldAllowed(field string, globs []glob.Glob) bool {
	if len(globs) == 0 {
		return true
	}
	for _, g := range globs {
		if g.Match(field) {
			return true
		}
	}
	return false
}

// emptySet mirrors the analyzer's empty-token handling for the
// engine's own value collection.
type emptySet map[string]bool

func newEmptySet(tokens []string) emptySet {
	set := make(emptySet, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

func (e emptySet) isEmpty(v value.Value, s string) bool {
	if v.IsNull() || s == "" {
		return true
	}
	return e[s]
}
