package reader

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/semscan/semscan/internal/value"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func drain(t *testing.T, src Source) []value.Record {
	t.Helper()
	defer src.Close()
	recs, err := Collect(src, 0)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	return recs
}

func TestJSONLines(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.jsonl", []byte(
		`{"name":"ada","age":36,"score":9.5,"active":true,"note":null}

{"name":"bob","age":41}
`))

	src, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	recs := drain(t, src)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2 (blank line skipped)", len(recs))
	}

	r := recs[0]
	wantOrder := []string{"name", "age", "score", "active", "note"}
	for i, f := range r.Fields() {
		if f != wantOrder[i] {
			t.Fatalf("field order = %v, want %v", r.Fields(), wantOrder)
		}
	}
	if r.Get("age").String() != "36" {
		t.Errorf("age = %q, want 36 (integral float renders as int)", r.Get("age").String())
	}
	if r.Get("score").String() != "9.5" {
		t.Errorf("score = %q", r.Get("score").String())
	}
	if !r.Get("note").IsNull() {
		t.Error("null cell should be the null value")
	}
}

func TestJSONLines_NestedValuesDoNotBreakKeyOrder(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "nested.jsonl", []byte(
		`{"id":"1","meta":{"inner":"x"},"tags":["a","b"],"last":"z"}`+"\n"))

	src, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	recs := drain(t, src)
	want := []string{"id", "meta", "tags", "last"}
	got := recs[0].Fields()
	if len(got) != len(want) {
		t.Fatalf("fields = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fields = %v, want %v", got, want)
		}
	}
}

func TestCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.csv", []byte("name,email,year\nada,a@b.com,1999\nbob,b@c.org\n"))

	src, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	recs := drain(t, src)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Get("email").String() != "a@b.com" {
		t.Errorf("email = %q", recs[0].Get("email").String())
	}
	// Ragged row: missing trailing cell reads as null.
	if !recs[1].Get("year").IsNull() {
		t.Errorf("missing cell = %q, want null", recs[1].Get("year").String())
	}
}

func TestOpen_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte("a,b\n1,2\n")); err != nil {
		t.Fatal(err)
	}
	zw.Close()

	dir := t.TempDir()
	path := writeFile(t, dir, "data.csv.gz", buf.Bytes())

	src, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	recs := drain(t, src)
	if len(recs) != 1 || recs[0].Get("a").String() != "1" {
		t.Errorf("gzip csv records = %+v", recs)
	}
}

func TestOpen_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.parquet", []byte("x"))
	if _, err := Open(path); err == nil {
		t.Error("unsupported extension should fail")
	}
}

func TestMemoryAndCollectLimit(t *testing.T) {
	recs := make([]value.Record, 4)
	for i := range recs {
		r := value.NewRecord()
		r.Set("n", value.IntValue(int64(i)))
		recs[i] = r
	}
	src := NewMemory(recs)
	got, err := Collect(src, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("Collect limit: got %d, want 3", len(got))
	}
	if _, err := src.Next(); err != nil {
		t.Errorf("source should still have records, got %v", err)
	}
	if _, err := src.Next(); err != io.EOF {
		t.Errorf("exhausted source should return EOF, got %v", err)
	}
}

func TestOpenSQLite_RejectsBadTableName(t *testing.T) {
	if _, err := OpenSQLite("irrelevant.db", "users; DROP TABLE x", 0); err == nil {
		t.Error("injection-shaped table name must be rejected")
	}
}
