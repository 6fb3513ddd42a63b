package analyzer

import (
	"testing"

	"github.com/semscan/semscan/internal/dateparse"
	"github.com/semscan/semscan/internal/value"
)

// rows builds records from a column of string values under one field.
func rows(field string, vals ...string) []value.Record {
	recs := make([]value.Record, 0, len(vals))
	for _, v := range vals {
		r := value.NewRecord()
		r.Set(field, value.StrValue(v))
		recs = append(recs, r)
	}
	return recs
}

func analyzeOne(t *testing.T, recs []value.Record, opts Options) FieldStat {
	t.Helper()
	stats := Analyze(recs, opts)
	if len(stats) != 1 {
		t.Fatalf("Analyze returned %d stats, want 1", len(stats))
	}
	return stats[0]
}

func TestAnalyze_TypeInference(t *testing.T) {
	tests := []struct {
		name string
		vals []string
		want string
	}{
		{"ints", []string{"1", "42", "-7"}, TypeInt},
		{"floats", []string{"1.5", "2.25"}, TypeFloat},
		{"bools", []string{"true", "FALSE", "yes"}, TypeBool},
		{"strings", []string{"alpha", "beta"}, TypeStr},
		{"int widened by string", []string{"1", "2", "x"}, TypeStr},
		{"float widened by string", []string{"1.5", "oops"}, TypeStr},
		{"zero one are ints", []string{"0", "1"}, TypeInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := analyzeOne(t, rows("f", tt.vals...), DefaultOptions())
			if st.FType != tt.want {
				t.Errorf("FType = %q, want %q", st.FType, tt.want)
			}
		})
	}
}

func TestAnalyze_DateInferenceNeedsParser(t *testing.T) {
	recs := rows("d", "2024-06-01", "2023-12-31")

	st := analyzeOne(t, recs, DefaultOptions())
	if st.FType != TypeStr {
		t.Errorf("without a date parser FType = %q, want str", st.FType)
	}

	opts := DefaultOptions()
	opts.DateParser = dateparse.New()
	st = analyzeOne(t, recs, opts)
	if st.FType != TypeDate {
		t.Errorf("with a date parser FType = %q, want date", st.FType)
	}
}

func TestAnalyze_TypedScalarsKeepKind(t *testing.T) {
	r1 := value.NewRecord()
	r1.Set("n", value.IntValue(10))
	r2 := value.NewRecord()
	r2.Set("n", value.IntValue(11))

	st := analyzeOne(t, []value.Record{r1, r2}, DefaultOptions())
	if st.FType != TypeInt {
		t.Errorf("FType = %q, want int", st.FType)
	}
}

func TestAnalyze_LengthStats(t *testing.T) {
	st := analyzeOne(t, rows("f", "ab", "abcd", "abcdef"), DefaultOptions())

	if st.MinLen != 2 || st.MaxLen != 6 {
		t.Errorf("MinLen/MaxLen = %d/%d, want 2/6", st.MinLen, st.MaxLen)
	}
	if st.AvgLen != 4.0 {
		t.Errorf("AvgLen = %v, want 4.0", st.AvgLen)
	}
}

func TestAnalyze_CharClassFlags(t *testing.T) {
	st := analyzeOne(t, rows("f", "abc", "123", "a-b"), DefaultOptions())
	if !st.HasDigit || !st.HasAlpha || !st.HasSpecial {
		t.Errorf("flags = digit:%v alpha:%v special:%v, want all true",
			st.HasDigit, st.HasAlpha, st.HasSpecial)
	}

	st = analyzeOne(t, rows("g", "abc", "def"), DefaultOptions())
	if st.HasDigit || st.HasSpecial {
		t.Errorf("pure-alpha field set digit:%v special:%v", st.HasDigit, st.HasSpecial)
	}
}

func TestAnalyze_EmptyHandling(t *testing.T) {
	st := analyzeOne(t, rows("f", "x", "", "None", "NaN", "-", "N/A", "y"), DefaultOptions())

	if st.SampleSize != 7 {
		t.Errorf("SampleSize = %d, want 7", st.SampleSize)
	}
	if st.NonEmpty != 2 {
		t.Errorf("NonEmpty = %d, want 2", st.NonEmpty)
	}
}

func TestAnalyze_DictionaryDetection(t *testing.T) {
	// 20 values, 2 distinct: share = 10% which is <= the threshold.
	vals := make([]string, 0, 20)
	for i := 0; i < 10; i++ {
		vals = append(vals, "male", "female")
	}
	st := analyzeOne(t, rows("gender", vals...), DefaultOptions())

	if !st.IsDictionary {
		t.Fatalf("share 10%% at threshold 10.0 should be a dictionary")
	}
	want := []string{"female", "male"}
	if len(st.DictValues) != 2 || st.DictValues[0] != want[0] || st.DictValues[1] != want[1] {
		t.Errorf("DictValues = %v, want %v", st.DictValues, want)
	}

	// 4 distinct over 20 is 20% — above the threshold.
	vals = append(vals[:18], "other", "unknown")
	st = analyzeOne(t, rows("gender", vals...), DefaultOptions())
	if st.IsDictionary {
		t.Error("share above threshold must not be a dictionary")
	}
}

func TestAnalyze_Limit(t *testing.T) {
	vals := make([]string, 50)
	for i := range vals {
		vals[i] = "v"
	}
	opts := DefaultOptions()
	opts.Limit = 10
	st := analyzeOne(t, rows("f", vals...), opts)
	if st.SampleSize != 10 {
		t.Errorf("SampleSize = %d, want limit 10", st.SampleSize)
	}
}

func TestAnalyze_MissingFieldCountsAsNull(t *testing.T) {
	r1 := value.NewRecord()
	r1.Set("a", value.StrValue("x"))
	r1.Set("b", value.StrValue("y"))
	r2 := value.NewRecord()
	r2.Set("a", value.StrValue("z"))

	stats := Analyze([]value.Record{r1, r2}, DefaultOptions())
	if len(stats) != 2 {
		t.Fatalf("got %d stats, want 2", len(stats))
	}
	b := stats[1]
	if b.Field != "b" || b.SampleSize != 2 || b.NonEmpty != 1 {
		t.Errorf("field b stat = %+v, want sample 2 / non-empty 1", b)
	}
}

func TestAnalyze_AllEmptyFieldIsOther(t *testing.T) {
	st := analyzeOne(t, rows("f", "", "None"), DefaultOptions())
	if st.FType != TypeOther {
		t.Errorf("FType = %q, want other", st.FType)
	}
	if st.IsDictionary {
		t.Error("all-empty field must not be a dictionary")
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	recs := rows("f", "a", "b", "a", "c", "", "b")
	first := Analyze(recs, DefaultOptions())
	for i := 0; i < 5; i++ {
		again := Analyze(recs, DefaultOptions())
		if len(again) != len(first) {
			t.Fatal("stat count changed between runs")
		}
		for j := range first {
			a, b := first[j], again[j]
			if a.Field != b.Field || a.Unique != b.Unique || a.NonEmpty != b.NonEmpty || a.FType != b.FType {
				t.Fatalf("stats differ between runs: %+v vs %+v", a, b)
			}
		}
	}
}
