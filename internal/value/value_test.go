package value

import "testing"

func TestFromAnyAndString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		kind Kind
		str  string
	}{
		{"nil", nil, Null, ""},
		{"string", "hello", Str, "hello"},
		{"bool", true, Bool, "true"},
		{"int", 42, Int, "42"},
		{"int64", int64(-7), Int, "-7"},
		{"float", 1.5, Float, "1.5"},
		{"integral float collapses to int", float64(36), Int, "36"},
		{"bytes", []byte("raw"), Str, "raw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := FromAny(tt.in)
			if v.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", v.Kind(), tt.kind)
			}
			if v.String() != tt.str {
				t.Errorf("String() = %q, want %q", v.String(), tt.str)
			}
		})
	}
}

func TestRecordOrder(t *testing.T) {
	r := NewRecord()
	r.Set("b", StrValue("1"))
	r.Set("a", StrValue("2"))
	r.Set("c", StrValue("3"))
	r.Set("a", StrValue("4")) // Replacement keeps original position.

	want := []string{"b", "a", "c"}
	got := r.Fields()
	if len(got) != len(want) {
		t.Fatalf("Fields() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Fields() = %v, want %v", got, want)
		}
	}
	if r.Get("a").String() != "4" {
		t.Errorf("replaced value = %q, want 4", r.Get("a").String())
	}
	if !r.Get("missing").IsNull() {
		t.Error("missing field should read as null")
	}
}

func TestRecordFromMap(t *testing.T) {
	m := map[string]any{"x": 1, "y": "two", "z": nil}
	r := RecordFromMap([]string{"y", "x"}, m)

	fields := r.Fields()
	if fields[0] != "y" || fields[1] != "x" {
		t.Errorf("ordered fields = %v, want y then x", fields[:2])
	}
	if len(fields) != 3 {
		t.Errorf("got %d fields, want 3 (z appended)", len(fields))
	}
	if !r.Get("z").IsNull() {
		t.Error("nil map value should be null")
	}
}
