// Package value models the scalar values and records that flow through
// a scan. Sources (files, database tables, the HTTP API) normalize
// whatever they read into these types so the analyzer and classifier
// never see raw driver- or decoder-specific values.
package value

import (
	"fmt"
	"strconv"
)

// Kind enumerates the scalar kinds a field value can take.
type Kind int

const (
	Null Kind = iota
	Int
	Float
	Bool
	Str
)

// String returns the kind name used in reports and logs.
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Str:
		return "str"
	default:
		return "unknown"
	}
}

// Value is a single scalar cell. The zero value is Null.
//
// Matching always operates on the string form (see String) — rules are
// written against text, so an int 42 and the string "42" classify
// identically.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
}

// NullValue returns the null scalar.
func NullValue() Value { return Value{} }

// IntValue wraps an integer.
func IntValue(v int64) Value { return Value{kind: Int, i: v} }

// FloatValue wraps a floating-point number.
func FloatValue(v float64) Value { return Value{kind: Float, f: v} }

// BoolValue wraps a boolean.
func BoolValue(v bool) Value { return Value{kind: Bool, b: v} }

// StrValue wraps a string.
func StrValue(v string) Value { return Value{kind: Str, s: v} }

// FromAny converts a decoded JSON/YAML/driver value into a Value.
// Unrecognized types fall back to their fmt string form — sources feed
// us map[string]any and we'd rather classify a lossy string than drop
// the cell.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return NullValue()
	case string:
		return StrValue(x)
	case bool:
		return BoolValue(x)
	case int:
		return IntValue(int64(x))
	case int32:
		return IntValue(int64(x))
	case int64:
		return IntValue(x)
	case uint64:
		return IntValue(int64(x))
	case float32:
		return FloatValue(float64(x))
	case float64:
		// JSON numbers always decode as float64. Render integral
		// values as ints so "42" matches, not "42.000000".
		if x == float64(int64(x)) {
			return IntValue(int64(x))
		}
		return FloatValue(x)
	case []byte:
		return StrValue(string(x))
	default:
		return StrValue(fmt.Sprint(x))
	}
}

// Kind reports the scalar kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is the null scalar.
func (v Value) IsNull() bool { return v.kind == Null }

// String renders the value in its canonical text form. Null renders
// as the empty string.
func (v Value) String() string {
	switch v.kind {
	case Null:
		return ""
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case Bool:
		return strconv.FormatBool(v.b)
	default:
		return v.s
	}
}

// Record is an ordered mapping from field name to value. Field order
// matters: the first record seen in a scan fixes the column order of
// the report.
type Record struct {
	fields []string
	values map[string]Value
}

// NewRecord returns an empty record.
func NewRecord() Record {
	return Record{values: make(map[string]Value)}
}

// Set adds or replaces a field. A new field name is appended to the
// field order.
func (r *Record) Set(field string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[field]; !ok {
		r.fields = append(r.fields, field)
	}
	r.values[field] = v
}

// Get returns the value for a field. Missing fields read as Null.
func (r Record) Get(field string) Value {
	if r.values == nil {
		return NullValue()
	}
	return r.values[field]
}

// Has reports whether the record contains the field.
func (r Record) Has(field string) bool {
	_, ok := r.values[field]
	return ok
}

// Fields returns the field names in insertion order. The returned
// slice is shared — callers must not modify it.
func (r Record) Fields() []string { return r.fields }

// Len returns the number of fields.
func (r Record) Len() int { return len(r.fields) }

// RecordFromMap builds a record from a plain map, ordering fields by
// the given key order. Keys present in the map but absent from order
// are appended afterwards in map iteration order — callers that care
// about the order of every field must list them all.
func RecordFromMap(order []string, m map[string]any) Record {
	r := NewRecord()
	for _, k := range order {
		if v, ok := m[k]; ok {
			r.Set(k, FromAny(v))
		}
	}
	for k, v := range m {
		if !r.Has(k) {
			r.Set(k, FromAny(v))
		}
	}
	return r
}
