package grammar

import (
	"errors"
	"strconv"
	"testing"
)

// mustCompile compiles an expression or fails the test.
func mustCompile(t *testing.T, expr string) *Matcher {
	t.Helper()
	m, err := Compile(expr)
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", expr, err)
	}
	return m
}

func TestCompile_WordExact(t *testing.T) {
	m := mustCompile(t, "Word(nums, exact=4)")

	tests := []struct {
		in   string
		want bool
	}{
		{"1999", true},
		{"123", false},   // too short
		{"12345", false}, // exact=4 leaves the fifth digit unconsumed
		{"abcd", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := m.Match(tt.in); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCompile_WordMinMax(t *testing.T) {
	m := mustCompile(t, "Word(hexnums, min=2, max=6)")

	tests := []struct {
		in   string
		want bool
	}{
		{"af", true},
		{"DEADBE", true},
		{"a", false},       // below min
		{"abcdef0", false}, // run cut at max, leftover byte
		{"xyz", false},
	}
	for _, tt := range tests {
		if got := m.Match(tt.in); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCompile_SequenceWithLiteralAndOptional(t *testing.T) {
	m := mustCompile(t, "Word(nums, exact=4) + Literal(':') + Optional(Word(printables))")

	tests := []struct {
		in   string
		want bool
	}{
		{"2024:", true},
		{"2024:abc", true},
		{"2024", false},
		{"20:abc", false},
	}
	for _, tt := range tests {
		if got := m.Match(tt.in); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCompile_CaselessLiteral(t *testing.T) {
	m := mustCompile(t, "CaselessLiteral('ru') + Word(nums, exact=2)")

	for _, in := range []string{"ru77", "RU77", "Ru77"} {
		if !m.Match(in) {
			t.Errorf("Match(%q) = false, want true", in)
		}
	}
	if m.Match("en77") {
		t.Error("Match(\"en77\") = true, want false")
	}
}

// Year grammar: 1000-1999 via the first branch, 2000-2199 via the
// second. 2200 must be rejected — Word('01') admits only '0' and '1'
// in the century position.
func TestCompile_LongestAlternativeYearGrammar(t *testing.T) {
	m := mustCompile(t, "(Literal('1') + Word(nums, exact=3)) ^ (Literal('2') + Word('01', exact=1) + Word(nums, exact=2))")

	tests := []struct {
		in   string
		want bool
	}{
		{"1999", true},
		{"2012", true},
		{"2100", true},
		{"2200", false},
		{"abcd", false},
	}
	for _, tt := range tests {
		if got := m.Match(tt.in); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// ^ keeps the longest acceptance even when an earlier branch matches
// a shorter prefix.
func TestCompile_LongestAlternativePrefersLongerSpan(t *testing.T) {
	m := mustCompile(t, "Literal('ab') ^ Literal('abcd')")

	if !m.Match("abcd") {
		t.Error("longest alternative should consume all of \"abcd\"")
	}
	if !m.Match("ab") {
		t.Error("shorter branch should still match \"ab\"")
	}
}

// | takes the leftmost acceptance: the short branch wins, leaving
// unconsumed input that fails the whole-string check.
func TestCompile_FirstAlternativeIsLeftmost(t *testing.T) {
	m := mustCompile(t, "Literal('ab') | Literal('abcd')")

	if m.Match("abcd") {
		t.Error("first alternative committed to 'ab'; \"abcd\" must not fully match")
	}
	if !m.Match("ab") {
		t.Error("Match(\"ab\") = false, want true")
	}
}

func TestCompile_SuppressForms(t *testing.T) {
	// Both the wrapper and the postfix form are span-transparent.
	for _, expr := range []string{
		"Suppress(Literal('#')) + Word(nums)",
		"Literal('#').suppress() + Word(nums)",
	} {
		m := mustCompile(t, expr)
		if !m.Match("#123") {
			t.Errorf("%q should match \"#123\"", expr)
		}
		if m.Match("123") {
			t.Errorf("%q should not match \"123\"", expr)
		}
	}
}

func TestCompile_LineEndAllowsTrailingWhitespace(t *testing.T) {
	m := mustCompile(t, "Word(nums, exact=4) + lineEnd")

	if !m.Match("2024") {
		t.Error("Match(\"2024\") = false, want true")
	}
	if !m.Match("2024  ") {
		t.Error("trailing whitespace after lineEnd should be tolerated")
	}

	plain := mustCompile(t, "Word(nums, exact=4)")
	if plain.Match("2024  ") {
		t.Error("without lineEnd, trailing whitespace must fail the match")
	}
}

func TestCompile_RejectsUnsafeExpressions(t *testing.T) {
	tests := []struct {
		expr string
		kind ErrorKind
	}{
		{"__import__('os').system('x')", Unsafe},
		{"eval('1')", Unsafe},
		{"exec('x')", Unsafe},
		{"open('/etc/passwd')", Unsafe},
		{"compile('x')", Unsafe},
		{"os.system('x')", Unsafe},
		{"Word(nums).__class__", Unsafe},
		{"Word(nums).strip()", Unsafe},
		{"frobnicate(nums)", Unsafe},
		{"nums(3)", Unsafe},
		{"mystery", Unsafe},
	}
	for _, tt := range tests {
		_, err := Compile(tt.expr)
		if err == nil {
			t.Errorf("Compile(%q) succeeded, want %s error", tt.expr, tt.kind)
			continue
		}
		var cerr *CompileError
		if !errors.As(err, &cerr) {
			t.Errorf("Compile(%q) returned %T, want *CompileError", tt.expr, err)
			continue
		}
		if cerr.Kind != tt.kind {
			t.Errorf("Compile(%q) kind = %s, want %s", tt.expr, cerr.Kind, tt.kind)
		}
	}
}

func TestCompile_RejectsMalformedSyntax(t *testing.T) {
	tests := []string{
		"",
		"Word(",
		"Word(nums,)",
		"Word(nums, exact=)",
		"Word('')",
		"Literal()",
		"+ Word(nums)",
		"Word(nums) +",
		"Word(nums) Word(nums)",
		"nums",
		"Word(nums, min=5, max=2)",
		"'abc",
		"Word(nums)[0]",
	}
	for _, expr := range tests {
		if _, err := Compile(expr); err == nil {
			t.Errorf("Compile(%q) succeeded, want error", expr)
		}
	}
}

func TestCompile_UnknownWordKeywordIsUnsupported(t *testing.T) {
	_, err := Compile("Word(nums, repeat=3)")
	var cerr *CompileError
	if !errors.As(err, &cerr) || cerr.Kind != Unsupported {
		t.Fatalf("Compile with unknown keyword = %v, want Unsupported", err)
	}
}

// Compiling the same body twice must return behaviorally identical
// matchers, and the second call should come from the cache.
func TestCompile_CacheHitPreservesSemantics(t *testing.T) {
	const expr = "Word(alphanums, min=3) + Literal('@') + Word(alphanums, min=2)"

	m1 := mustCompile(t, expr)
	m2 := mustCompile(t, expr)
	if m1 != m2 {
		t.Error("second compile of identical body should be a cache hit")
	}

	for _, in := range []string{"abc@de", "ab@de", "abc@d", "abcde"} {
		if m1.Match(in) != m2.Match(in) {
			t.Errorf("cache hit changed semantics for %q", in)
		}
	}
}

func TestCompile_CacheBounded(t *testing.T) {
	// Fill well past capacity with distinct bodies; the LRU must not
	// grow beyond its bound.
	for i := 0; i < cacheCapacity+50; i++ {
		expr := "Word(nums, exact=" + strconv.Itoa(i+1) + ")"
		if _, err := Compile(expr); err != nil {
			t.Fatalf("Compile(%q) failed: %v", expr, err)
		}
	}
	if n := cacheLen(); n > cacheCapacity {
		t.Errorf("cache size %d exceeds capacity %d", n, cacheCapacity)
	}
}

func TestMatchPrefix(t *testing.T) {
	m := mustCompile(t, "Word(nums)")
	n, ok := m.MatchPrefix("123abc")
	if !ok || n != 3 {
		t.Errorf("MatchPrefix = (%d, %v), want (3, true)", n, ok)
	}
}
