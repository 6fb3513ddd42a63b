package catalog

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Options configures a catalog load.
type Options struct {
	// Dirs are rule directories, walked recursively for .yaml/.yml
	// files. A file participates iff its top-level mapping has a
	// `rules:` key.
	Dirs []string
	// Builtin includes the compiled-in rule set ahead of the file
	// rules.
	Builtin bool
	// BuiltinToggles enables/disables individual built-in rules by
	// id. Unlisted built-ins follow their defaults.
	BuiltinToggles map[string]bool
}

// Catalog is the immutable, compiled rule set of a process. Loaded
// once; shared read-only by every scan.
type Catalog struct {
	rules  []*Rule
	issues []Issue
}

// Rules returns all active rules in load order.
func (c *Catalog) Rules() []*Rule { return c.rules }

// Issues returns the structured problems collected during load.
func (c *Catalog) Issues() []Issue { return c.issues }

// Len returns the number of active rules.
func (c *Catalog) Len() int { return len(c.rules) }

// Load builds a catalog from the built-in set and the rule
// directories. Per-file and per-rule failures become issues; only a
// completely unreadable directory is reported as an issue too, so
// Load itself never fails — an empty catalog is a usable catalog.
func Load(opts Options) *Catalog {
	c := &Catalog{}

	if opts.Builtin {
		for _, r := range builtinRules() {
			enabled, known := opts.BuiltinToggles[r.ID]
			if !known {
				enabled = defaultBuiltinToggles()[r.ID]
			}
			if !enabled {
				continue
			}
			c.add(r)
		}
	}

	for _, dir := range opts.Dirs {
		c.loadDir(dir)
	}

	slog.Info("rule catalog loaded", "rules", len(c.rules), "issues", len(c.issues))
	return c
}

// add validates, compiles, and appends a rule, recording an issue and
// dropping the rule on failure.
func (c *Catalog) add(r *Rule) {
	if r.FieldRuleMatch == "" {
		r.FieldRuleMatch = MatchText
	}
	if err := r.validate(); err != nil {
		c.issues = append(c.issues, Issue{File: r.File, RuleID: r.ID, Kind: IssueValidation, Detail: err.Error()})
		return
	}
	if kind, err := r.compile(); err != nil {
		c.issues = append(c.issues, Issue{File: r.File, RuleID: r.ID, Kind: kind, Detail: err.Error()})
		return
	}
	r.loadOrder = len(c.rules)
	c.rules = append(c.rules, r)
}

// loadDir walks one directory tree for rule files. WalkDir visits
// entries in lexical order, which keeps load order deterministic.
func (c *Catalog) loadDir(dir string) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			c.issues = append(c.issues, Issue{File: path, Kind: IssueFile, Detail: err.Error()})
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		c.loadFile(path)
		return nil
	})
	if err != nil {
		c.issues = append(c.issues, Issue{File: dir, Kind: IssueFile, Detail: err.Error()})
	}
}

// fileHeader is the file-level envelope of a rule file.
type fileHeader struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Context     string `yaml:"context"`
	Lang        string `yaml:"lang"`
	CountryCode string `yaml:"country_code"`
}

// yamlRule is the on-disk shape of one rule entry.
type yamlRule struct {
	Key            string   `yaml:"key"`
	Name           string   `yaml:"name"`
	Type           string   `yaml:"type"`
	Match          string   `yaml:"match"`
	Rule           string   `yaml:"rule"`
	Priority       int      `yaml:"priority"`
	MinLen         int      `yaml:"minlen"`
	MaxLen         int      `yaml:"maxlen"`
	Imprecise      flexBool `yaml:"imprecise"`
	IsPII          bool     `yaml:"is_pii"`
	Validator      string   `yaml:"validator"`
	FieldRule      string   `yaml:"fieldrule"`
	FieldRuleMatch string   `yaml:"fieldrulematch"`
	// Per-rule overrides of the file-level filter tags.
	Context     string `yaml:"context"`
	Lang        string `yaml:"lang"`
	CountryCode string `yaml:"country_code"`
}

// flexBool accepts the numeric 0/1 spelling used by older rule files
// alongside plain YAML booleans.
type flexBool bool

func (f *flexBool) UnmarshalYAML(node *yaml.Node) error {
	switch node.Value {
	case "0", "false", "False", "no":
		*f = false
		return nil
	case "1", "true", "True", "yes":
		*f = true
		return nil
	}
	return fmt.Errorf("expected boolean or 0/1, got %q", node.Value)
}

// loadFile parses one rule file. The document is decoded through a
// yaml.Node first: this preserves the author's rule order (a plain
// map would randomize it) and lets us refuse non-standard tags before
// any field decoding happens.
func (c *Catalog) loadFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		c.issues = append(c.issues, Issue{File: path, Kind: IssueFile, Detail: err.Error()})
		return
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		slog.Warn("skipping unparseable rule file", "file", path, "error", err)
		c.issues = append(c.issues, Issue{File: path, Kind: IssueFile, Detail: err.Error()})
		return
	}
	if len(doc.Content) == 0 {
		return
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		c.issues = append(c.issues, Issue{File: path, Kind: IssueFile, Detail: "top level is not a mapping"})
		return
	}
	if err := rejectForeignTags(root); err != nil {
		c.issues = append(c.issues, Issue{File: path, Kind: IssueFile, Detail: err.Error()})
		return
	}

	var header fileHeader
	if err := root.Decode(&header); err != nil {
		c.issues = append(c.issues, Issue{File: path, Kind: IssueFile, Detail: err.Error()})
		return
	}

	rulesNode := mappingValue(root, "rules")
	if rulesNode == nil {
		// Not a rule file — directories may hold other YAML.
		return
	}
	if rulesNode.Kind != yaml.MappingNode {
		c.issues = append(c.issues, Issue{File: path, Kind: IssueFile, Detail: "rules: is not a mapping"})
		return
	}

	// Mapping content alternates key, value — iterating it preserves
	// document order.
	for i := 0; i+1 < len(rulesNode.Content); i += 2 {
		id := rulesNode.Content[i].Value
		var yr yamlRule
		if err := rulesNode.Content[i+1].Decode(&yr); err != nil {
			c.issues = append(c.issues, Issue{File: path, RuleID: id, Kind: IssueValidation, Detail: err.Error()})
			continue
		}
		c.add(ruleFromYAML(path, id, header, yr))
	}
}

// ruleFromYAML merges the file header defaults into one parsed rule.
func ruleFromYAML(path, id string, header fileHeader, yr yamlRule) *Rule {
	r := &Rule{
		ID:             id,
		Key:            yr.Key,
		Name:           yr.Name,
		Type:           RuleType(yr.Type),
		Match:          MatchKind(yr.Match),
		Body:           yr.Rule,
		Priority:       yr.Priority,
		MinLen:         yr.MinLen,
		MaxLen:         yr.MaxLen,
		Imprecise:      bool(yr.Imprecise),
		IsPII:          yr.IsPII,
		Validator:      yr.Validator,
		FieldRule:      yr.FieldRule,
		FieldRuleMatch: MatchKind(yr.FieldRuleMatch),
		Context:        header.Context,
		Lang:           header.Lang,
		Countries:      splitCountries(header.CountryCode),
		File:           path,
	}
	if yr.Context != "" {
		r.Context = yr.Context
	}
	if yr.Lang != "" {
		r.Lang = yr.Lang
	}
	if yr.CountryCode != "" {
		r.Countries = splitCountries(yr.CountryCode)
	}
	if r.FieldRuleMatch == "" {
		r.FieldRuleMatch = MatchText
	}
	return r
}

// splitCountries parses the comma-list country_code field into
// upper-cased codes.
func splitCountries(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// mappingValue returns the value node for a key of a mapping node.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// rejectForeignTags refuses any node carrying a tag outside the core
// YAML schema. Rule files hold scalars, mappings, and sequences —
// nothing with language-specific typing.
func rejectForeignTags(n *yaml.Node) error {
	switch n.Tag {
	case "", "!!str", "!!int", "!!float", "!!bool", "!!null", "!!map", "!!seq", "!!timestamp":
	default:
		return fmt.Errorf("disallowed YAML tag %s at line %d", n.Tag, n.Line)
	}
	for _, child := range n.Content {
		if err := rejectForeignTags(child); err != nil {
			return err
		}
	}
	return nil
}
