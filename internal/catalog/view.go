package catalog

import "sort"

// Filters restrict which rules a scan evaluates. Empty slices mean
// "no restriction" on that axis.
type Filters struct {
	Contexts  []string
	Langs     []string
	Countries []string
	// IgnoreImprecise excludes rules flagged imprecise.
	IgnoreImprecise bool
}

// View is a filtered projection of the catalog, grouped by rule type
// and ordered for deterministic evaluation: priority descending, then
// load order ascending.
type View struct {
	FieldRules []*Rule
	DataRules  []*Rule
}

// Select builds a view of the rules passing the filters.
func (c *Catalog) Select(f Filters) *View {
	v := &View{}
	for _, r := range c.rules {
		if !passes(r, f) {
			continue
		}
		switch r.Type {
		case FieldRule:
			v.FieldRules = append(v.FieldRules, r)
		case DataRule:
			v.DataRules = append(v.DataRules, r)
		}
	}
	orderRules(v.FieldRules)
	orderRules(v.DataRules)
	return v
}

// Len returns the number of rules in the view.
func (v *View) Len() int { return len(v.FieldRules) + len(v.DataRules) }

// passes applies the filter semantics: every axis must admit the rule.
func passes(r *Rule, f Filters) bool {
	if f.IgnoreImprecise && r.Imprecise {
		return false
	}
	if len(f.Contexts) > 0 && !containsFold(f.Contexts, r.Context) {
		return false
	}
	// The neutral language passes every language filter.
	if len(f.Langs) > 0 && r.Lang != LangCommon && !containsFold(f.Langs, r.Lang) {
		return false
	}
	// Country filtering only bites when both sides name countries.
	if len(f.Countries) > 0 && len(r.Countries) > 0 && !intersectsFold(f.Countries, r.Countries) {
		return false
	}
	return true
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if equalFold(h, needle) {
			return true
		}
	}
	return false
}

func intersectsFold(a, b []string) bool {
	for _, x := range a {
		if containsFold(b, x) {
			return true
		}
	}
	return false
}

// equalFold is an ASCII-only case-insensitive compare; filter tags
// are short ASCII tokens.
func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// orderRules sorts in evaluation order. The sort is stable on load
// order via the explicit tiebreak, so ties never depend on sort
// internals.
func orderRules(rules []*Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].loadOrder < rules[j].loadOrder
	})
}
