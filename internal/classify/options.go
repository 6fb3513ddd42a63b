package classify

import (
	"fmt"

	"github.com/gobwas/glob"
	"github.com/semscan/semscan/internal/analyzer"
)

// DefaultConfidenceThreshold is the minimum confidence a match must
// reach to appear in a report.
const DefaultConfidenceThreshold = 5.0

// Options tunes one scan. A zero Limit and a nil EmptyValues fall back
// to their defaults; ConfidenceThreshold and DictShare are used as
// given, zero included. Construct via DefaultOptions and override.
type Options struct {
	// ConfidenceThreshold in percent; matches below it are dropped.
	// Must lie in [0, 100].
	ConfidenceThreshold float64
	// StopOnMatch stops a field's data pass after the first rule that
	// reaches the threshold. Field-name rules still all run first.
	StopOnMatch bool
	// ParseDates enables the date-pattern pass.
	ParseDates bool
	// IgnoreImprecise excludes rules flagged imprecise.
	IgnoreImprecise bool
	// ExceptEmpty keeps empty values out of both the numerator and
	// the denominator of confidences.
	ExceptEmpty bool
	// Limit bounds how many records are sampled.
	Limit int
	// DictShare is the dictionary-detection threshold percentage.
	DictShare float64
	// EmptyValues overrides the tokens treated as empty.
	EmptyValues []string
	// Fields is an allow-list of field names; glob patterns are
	// honored (gobwas/glob syntax). Empty means all fields.
	Fields []string
}

// DefaultOptions returns the standard scan options.
func DefaultOptions() Options {
	return Options{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		ParseDates:          true,
		IgnoreImprecise:     true,
		ExceptEmpty:         true,
		Limit:               analyzer.DefaultLimit,
		DictShare:           analyzer.DefaultDictShare,
		EmptyValues:         analyzer.DefaultEmptyValues(),
	}
}

// ConfigError reports an invalid option before a scan begins.
type ConfigError struct {
	Option string
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid option %s: %s", e.Option, e.Detail)
}

// validate checks option ranges and compiles the field allow-list.
// Returns the compiled globs (nil when no allow-list is set).
func (o *Options) validate() ([]glob.Glob, error) {
	if o.ConfidenceThreshold < 0 || o.ConfidenceThreshold > 100 {
		return nil, &ConfigError{Option: "confidence_threshold", Detail: fmt.Sprintf("%v outside [0,100]", o.ConfidenceThreshold)}
	}
	if o.Limit < 0 {
		return nil, &ConfigError{Option: "limit", Detail: "must be non-negative"}
	}
	if o.DictShare < 0 || o.DictShare > 100 {
		return nil, &ConfigError{Option: "dict_share", Detail: fmt.Sprintf("%v outside [0,100]", o.DictShare)}
	}
	if o.Limit == 0 {
		o.Limit = analyzer.DefaultLimit
	}
	if o.EmptyValues == nil {
		o.EmptyValues = analyzer.DefaultEmptyValues()
	}

	var globs []glob.Glob
	for _, pat := range o.Fields {
		g, err := glob.Compile(pat)
		if err != nil {
			return nil, &ConfigError{Option: "fields", Detail: fmt.Sprintf("invalid pattern %q: %v", pat, err)}
		}
		globs = append(globs, g)
	}
	return globs, nil
}
