// Package analyzer computes per-field statistics over a bounded
// sample of records: primitive type inference, length statistics,
// uniqueness, emptiness, and dictionary detection. The classifier
// consumes these stats for tagging and for its confidence
// denominators.
package analyzer

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/semscan/semscan/internal/dateparse"
	"github.com/semscan/semscan/internal/value"
)

// Field type names reported in stats and column reports.
const (
	TypeStr   = "str"
	TypeInt   = "int"
	TypeFloat = "float"
	TypeBool  = "bool"
	TypeDate  = "date"
	TypeOther = "other"
)

// DefaultLimit bounds how many records a scan samples per field.
const DefaultLimit = 1000

// DefaultDictShare is the unique-to-nonempty percentage at or below
// which a field counts as a dictionary.
const DefaultDictShare = 10.0

// dictValueCap bounds the retained distinct-value set for dictionary
// fields.
const dictValueCap = 256

// DefaultEmptyValues are tokens treated as empty in addition to null
// and the empty string.
func DefaultEmptyValues() []string {
	return []string{"None", "NaN", "-", "N/A"}
}

// Options tunes an analysis pass. The zero value is not usable —
// call DefaultOptions and override.
type Options struct {
	// Limit is the maximum number of rows sampled.
	Limit int
	// DictShare is the dictionary-detection threshold percentage.
	DictShare float64
	// EmptyValues are tokens considered empty besides null and "".
	EmptyValues []string
	// ExceptEmpty excludes empty values from confidence denominators
	// downstream; the analyzer records both counts either way.
	ExceptEmpty bool
	// DateParser, when non-nil, enables the date trial during type
	// inference.
	DateParser dateparse.Parser
}

// DefaultOptions returns the standard analysis options.
func DefaultOptions() Options {
	return Options{
		Limit:       DefaultLimit,
		DictShare:   DefaultDictShare,
		EmptyValues: DefaultEmptyValues(),
		ExceptEmpty: true,
	}
}

// FieldStat is the statistical summary of one field over the sample.
type FieldStat struct {
	Field        string   `json:"field"`
	FType        string   `json:"ftype"`
	SampleSize   int      `json:"sample_size"`
	NonEmpty     int      `json:"non_empty"`
	Unique       int      `json:"unique"`
	MinLen       int      `json:"min_len"`
	MaxLen       int      `json:"max_len"`
	AvgLen       float64  `json:"avg_len"`
	HasDigit     bool     `json:"has_digit"`
	HasAlpha     bool     `json:"has_alpha"`
	HasSpecial   bool     `json:"has_special"`
	IsDictionary bool     `json:"is_dictionary"`
	DictValues   []string `json:"dict_values,omitempty"`
}

// fieldAccum is the in-flight state for one field during analysis.
type fieldAccum struct {
	stat     FieldStat
	distinct map[string]bool
	ftype    string
	typeSet  bool
	lenSum   int
}

// Analyze computes a FieldStat for every field present in the sample.
// The sample must already be bounded (see the Limit option and the
// reader package's Collect); fields appear in the order fixed by the
// first record. Deterministic for a fixed record order.
func Analyze(records []value.Record, opts Options) []FieldStat {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if len(records) > opts.Limit {
		records = records[:opts.Limit]
	}

	empty := newEmptySet(opts.EmptyValues)

	var order []string
	accums := make(map[string]*fieldAccum)

	for _, rec := range records {
		for _, field := range rec.Fields() {
			acc, ok := accums[field]
			if !ok {
				acc = &fieldAccum{distinct: make(map[string]bool)}
				acc.stat.Field = field
				accums[field] = acc
				order = append(order, field)
			}
			acc.observe(rec.Get(field), empty, opts.DateParser)
		}
		// Fields absent from a record still count toward its sample
		// size as nulls.
		for _, field := range order {
			if !rec.Has(field) {
				accums[field].observe(value.NullValue(), empty, opts.DateParser)
			}
		}
	}

	stats := make([]FieldStat, 0, len(order))
	for _, field := range order {
		stats = append(stats, accums[field].finish(opts.DictShare))
	}
	return stats
}

// observe folds one value into the accumulator.
func (a *fieldAccum) observe(v value.Value, empty emptySet, dp dateparse.Parser) {
	a.stat.SampleSize++

	s := v.String()
	if empty.isEmpty(v, s) {
		return
	}
	a.stat.NonEmpty++
	a.distinct[s] = true

	n := len(s)
	if a.stat.NonEmpty == 1 || n < a.stat.MinLen {
		a.stat.MinLen = n
	}
	if n > a.stat.MaxLen {
		a.stat.MaxLen = n
	}
	a.lenSum += n

	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			a.stat.HasDigit = true
		case unicode.IsLetter(r):
			a.stat.HasAlpha = true
		case !unicode.IsSpace(r):
			a.stat.HasSpecial = true
		}
	}

	// Type inference: the first non-empty value picks the type;
	// any later value that contradicts it widens the field to str.
	if !a.typeSet {
		a.ftype = inferType(v, s, dp)
		a.typeSet = true
	} else if a.ftype != TypeStr && !conformsTo(a.ftype, v, s, dp) {
		a.ftype = TypeStr
	}
}

// finish produces the final stat, applying dictionary detection.
func (a *fieldAccum) finish(dictShare float64) FieldStat {
	st := a.stat
	st.Unique = len(a.distinct)

	if a.typeSet {
		st.FType = a.ftype
	} else {
		st.FType = TypeOther
	}
	if st.NonEmpty > 0 {
		st.AvgLen = float64(a.lenSum) / float64(st.NonEmpty)
		share := float64(st.Unique) / float64(st.NonEmpty) * 100
		if share <= dictShare {
			st.IsDictionary = true
			if st.Unique <= dictValueCap {
				vals := make([]string, 0, st.Unique)
				for v := range a.distinct {
					vals = append(vals, v)
				}
				sort.Strings(vals)
				st.DictValues = vals
			}
		}
	}
	return st
}

// emptySet answers whether a value counts as empty.
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

// inferType classifies the first non-empty value of a field.
// Typed scalars keep their kind; strings go through the parse ladder
// int -> float -> bool -> date -> str.
func inferType(v value.Value, s string, dp dateparse.Parser) string {
	switch v.Kind() {
	case value.Int:
		return TypeInt
	case value.Float:
		return TypeFloat
	case value.Bool:
		return TypeBool
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return TypeInt
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return TypeFloat
	}
	if isBoolToken(s) {
		return TypeBool
	}
	if dp != nil {
		if _, ok := dp.MatchDate(s); ok {
			return TypeDate
		}
	}
	return TypeStr
}

// conformsTo reports whether a value is consistent with an inferred
// type. Used to detect contradictions on later values.
func conformsTo(ftype string, v value.Value, s string, dp dateparse.Parser) bool {
	switch ftype {
	case TypeInt:
		if v.Kind() == value.Int {
			return true
		}
		_, err := strconv.ParseInt(s, 10, 64)
		return err == nil
	case TypeFloat:
		if v.Kind() == value.Float || v.Kind() == value.Int {
			return true
		}
		_, err := strconv.ParseFloat(s, 64)
		return err == nil
	case TypeBool:
		return v.Kind() == value.Bool || isBoolToken(s)
	case TypeDate:
		if dp == nil {
			return false
		}
		_, ok := dp.MatchDate(s)
		return ok
	default:
		return true
	}
}

// isBoolToken recognizes the boolean spellings accepted during
// inference: true/false, yes/no, 0/1, case-insensitive.
func isBoolToken(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false", "yes", "no", "0", "1":
		return true
	}
	return false
}
