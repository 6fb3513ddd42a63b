package catalog

import "fmt"

// IssueKind classifies a per-rule or per-file load problem.
type IssueKind string

const (
	// IssueCompile — a ppr body was rejected by the grammar compiler.
	IssueCompile IssueKind = "compile"
	// IssueResolve — a func reference or validator name is not in the
	// registration table.
	IssueResolve IssueKind = "resolve"
	// IssueValidation — a rule is missing a required field or has
	// contradictory bounds.
	IssueValidation IssueKind = "validation"
	// IssueFile — a rule file could not be parsed at all.
	IssueFile IssueKind = "file"
	// IssueRuntime — a rule was degraded during a scan (matcher
	// failures on most of its candidates).
	IssueRuntime IssueKind = "runtime"
)

// Issue is a structured, non-fatal load problem. Broken rules and
// files are excluded and reported; the catalog load always continues.
type Issue struct {
	File   string    `json:"file"`
	RuleID string    `json:"rule_id,omitempty"`
	Kind   IssueKind `json:"kind"`
	Detail string    `json:"detail"`
}

func (i Issue) String() string {
	if i.RuleID == "" {
		return fmt.Sprintf("%s: %s: %s", i.File, i.Kind, i.Detail)
	}
	return fmt.Sprintf("%s: rule %s: %s: %s", i.File, i.RuleID, i.Kind, i.Detail)
}
