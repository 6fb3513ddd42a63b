package classify

import (
	"fmt"
	"strings"

	"github.com/semscan/semscan/internal/analyzer"
	"github.com/semscan/semscan/internal/catalog"
)

// datatypeRegistryBase is the public datatype registry matched keys
// link to in reports.
const datatypeRegistryBase = "https://registry.commondata.io/datatype/"

// DatatypeURL returns the registry URL for a semantic datatype key.
func DatatypeURL(key string) string {
	if key == "" {
		return ""
	}
	return datatypeRegistryBase + key
}

// MatchResult is one rule (or date pattern) that fired for a field.
type MatchResult struct {
	RuleID     string           `json:"rule_id"`
	Key        string           `json:"key"`
	RuleType   catalog.RuleType `json:"rule_type"`
	Confidence float64          `json:"confidence_pct"`
	// DatatypeFormat is set only for date-pattern matches; it carries
	// the pattern's format token.
	DatatypeFormat string `json:"datatype_format,omitempty"`

	priority int
}

// format renders the match for the results-table projection:
// "<key> <conf.2f>" plus " (dt:<pattern>:<format>)" for date matches.
func (m MatchResult) format() string {
	s := fmt.Sprintf("%s %.2f", m.Key, m.Confidence)
	if m.DatatypeFormat != "" {
		s += fmt.Sprintf(" (dt:%s:%s)", m.RuleID, m.DatatypeFormat)
	}
	return s
}

// ColumnReport is the classification outcome for one field.
type ColumnReport struct {
	Field       string        `json:"field"`
	FType       string        `json:"ftype"`
	Tags        []string      `json:"tags"`
	Matches     []MatchResult `json:"matches"`
	DatatypeURL string        `json:"datatype_url,omitempty"`
}

// ResultRow is the flat projection of one column report:
// field, ftype, comma-joined tags, comma-joined matches, datatype URL.
type ResultRow [5]string

// ScanReport is the complete outcome of one scan.
type ScanReport struct {
	Results []ResultRow          `json:"results"`
	Data    []ColumnReport       `json:"data"`
	Stats   []analyzer.FieldStat `json:"stats"`
	// Issues carries catalog load problems plus rules degraded during
	// this scan.
	Issues []catalog.Issue `json:"issues,omitempty"`
}

// resultRow builds the flat projection for one column.
func resultRow(c ColumnReport) ResultRow {
	parts := make([]string, 0, len(c.Matches))
	for _, m := range c.Matches {
		parts = append(parts, m.format())
	}
	return ResultRow{
		c.Field,
		c.FType,
		strings.Join(c.Tags, ","),
		strings.Join(parts, ","),
		c.DatatypeURL,
	}
}
