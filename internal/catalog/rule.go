// Package catalog loads YAML rule files, compiles their bodies into
// executable matchers, and serves filtered views of the rule set to
// the classification engine.
//
// A rule file is one YAML document whose top-level mapping carries a
// `rules:` key. File-level context/lang/country_code are inherited by
// the file's rules unless a rule overrides them. Broken rules and
// files never abort a load — they are excluded and surfaced as
// structured issues.
package catalog

import (
	"fmt"
	"strings"

	"github.com/semscan/semscan/internal/grammar"
)

// RuleType says what a rule is evaluated against.
type RuleType string

const (
	// FieldRule rules test the field (column) name.
	FieldRule RuleType = "field"
	// DataRule rules test sampled field values.
	DataRule RuleType = "data"
)

// MatchKind says how a rule body is interpreted.
type MatchKind string

const (
	// MatchText — comma-separated token list, case-insensitive set
	// membership.
	MatchText MatchKind = "text"
	// MatchPPR — a grammar expression compiled by the grammar package.
	MatchPPR MatchKind = "ppr"
	// MatchFunc — a named predicate from the registration table.
	MatchFunc MatchKind = "func"
)

// LangCommon is the neutral language token; rules tagged with it pass
// every language filter.
const LangCommon = "common"

// Rule is one compiled classification rule. Immutable after load —
// scans running in parallel share these.
type Rule struct {
	ID   string
	Key  string // Semantic datatype identifier, e.g. "email".
	Name string // Human label.

	Type  RuleType
	Match MatchKind
	Body  string // Raw rule body as written in the file.

	Priority  int
	MinLen    int // 0 = no lower bound.
	MaxLen    int // 0 = no upper bound.
	Imprecise bool
	IsPII     bool

	Context   string
	Lang      string
	Countries []string

	// FieldRule scopes a data rule to plausible columns: the field
	// name must also satisfy this secondary matcher.
	FieldRule      string
	FieldRuleMatch MatchKind

	// Validator names a registered predicate a candidate must also
	// satisfy after the primary matcher accepts it.
	Validator string

	File      string // Source file, "" for built-ins.
	Builtin   bool
	loadOrder int

	matcher      compiledMatcher
	fieldMatcher *compiledMatcher // nil when FieldRule is empty.
	validateFn   PredicateFunc    // nil when Validator is empty.
}

// compiledMatcher is the tagged-variant executable form of a rule
// body: exactly one of the three arms is populated.
type compiledMatcher struct {
	kind    MatchKind
	tokens  map[string]bool  // text
	grammar *grammar.Matcher // ppr
	fn      PredicateFunc    // func
}

// matches applies the compiled body to a candidate string.
// Text matching lower-cases the candidate; grammar and func matching
// see it verbatim.
func (m *compiledMatcher) matches(s string) bool {
	switch m.kind {
	case MatchText:
		return m.tokens[strings.ToLower(s)]
	case MatchPPR:
		return m.grammar.Match(s)
	case MatchFunc:
		return m.fn(s)
	default:
		return false
	}
}

// MatchValue applies the rule's primary matcher and validator to a
// candidate value.
func (r *Rule) MatchValue(s string) bool {
	if !r.matcher.matches(s) {
		return false
	}
	if r.validateFn != nil && !r.validateFn(s) {
		return false
	}
	return true
}

// MatchFieldName reports whether the rule's secondary field-name
// condition accepts the given field. Rules without a fieldrule accept
// every field.
func (r *Rule) MatchFieldName(field string) bool {
	if r.fieldMatcher == nil {
		return true
	}
	return r.fieldMatcher.matches(field)
}

// InLenBounds reports whether a candidate length satisfies the rule's
// inclusive bounds.
func (r *Rule) InLenBounds(n int) bool {
	if r.MinLen > 0 && n < r.MinLen {
		return false
	}
	if r.MaxLen > 0 && n > r.MaxLen {
		return false
	}
	return true
}

// compile builds the executable matchers for a validated rule.
// Returns the issue kind and detail on failure.
func (r *Rule) compile() (IssueKind, error) {
	m, kind, err := compileBody(r.Match, r.Body)
	if err != nil {
		return kind, err
	}
	r.matcher = m

	if r.FieldRule != "" {
		fm, kind, err := compileBody(r.FieldRuleMatch, r.FieldRule)
		if err != nil {
			return kind, fmt.Errorf("fieldrule: %w", err)
		}
		r.fieldMatcher = &fm
	}

	if r.Validator != "" {
		fn, ok := LookupFunc(r.Validator)
		if !ok {
			return IssueResolve, fmt.Errorf("validator %q is not registered", r.Validator)
		}
		r.validateFn = fn
	}
	return "", nil
}

// compileBody compiles one body under one match kind.
func compileBody(kind MatchKind, body string) (compiledMatcher, IssueKind, error) {
	switch kind {
	case MatchText:
		tokens := make(map[string]bool)
		for _, tok := range strings.Split(body, ",") {
			tok = strings.TrimSpace(strings.ToLower(tok))
			if tok != "" {
				tokens[tok] = true
			}
		}
		if len(tokens) == 0 {
			return compiledMatcher{}, IssueValidation, fmt.Errorf("text rule has no tokens")
		}
		return compiledMatcher{kind: MatchText, tokens: tokens}, "", nil

	case MatchPPR:
		g, err := grammar.Compile(body)
		if err != nil {
			return compiledMatcher{}, IssueCompile, err
		}
		return compiledMatcher{kind: MatchPPR, grammar: g}, "", nil

	case MatchFunc:
		fn, ok := LookupFunc(body)
		if !ok {
			return compiledMatcher{}, IssueResolve, fmt.Errorf("func %q is not registered", body)
		}
		return compiledMatcher{kind: MatchFunc, fn: fn}, "", nil

	default:
		return compiledMatcher{}, IssueValidation, fmt.Errorf("unknown match kind %q", kind)
	}
}

// validate checks structural requirements before compilation.
func (r *Rule) validate() error {
	if r.Key == "" {
		return fmt.Errorf("missing key")
	}
	if r.Body == "" {
		return fmt.Errorf("missing rule body")
	}
	switch r.Type {
	case FieldRule, DataRule:
	default:
		return fmt.Errorf("unknown rule type %q", r.Type)
	}
	switch r.Match {
	case MatchText, MatchPPR, MatchFunc:
	default:
		return fmt.Errorf("unknown match kind %q", r.Match)
	}
	if r.MinLen < 0 || r.MaxLen < 0 {
		return fmt.Errorf("negative length bound")
	}
	if r.MinLen > 0 && r.MaxLen > 0 && r.MinLen > r.MaxLen {
		return fmt.Errorf("minlen %d exceeds maxlen %d", r.MinLen, r.MaxLen)
	}
	switch r.FieldRuleMatch {
	case MatchText, MatchPPR:
	default:
		return fmt.Errorf("fieldrulematch must be text or ppr, got %q", r.FieldRuleMatch)
	}
	return nil
}
