// Package reader provides record sources for scans: newline-delimited
// JSON and CSV files (with transparent gzip/brotli decompression),
// SQLite tables, and in-memory slices. Every source normalizes rows
// into value.Record so the engine never sees format-specific types.
package reader

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/semscan/semscan/internal/value"
)

// Source yields records one at a time. Next returns io.EOF after the
// last record. Close releases the underlying file or connection.
type Source interface {
	Next() (value.Record, error)
	Close() error
}

// Open returns a Source for a file path, picking the decoder from the
// extension: .jsonl/.ndjson/.json for newline-delimited JSON, .csv
// for CSV. A trailing .gz or .br compression extension is peeled off
// first and handled transparently.
func Open(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	name := filepath.Base(path)
	var rc io.ReadCloser = f
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening gzip stream %s: %w", path, err)
		}
		rc = &layeredCloser{Reader: zr, closers: []io.Closer{zr, f}}
		name = strings.TrimSuffix(name, filepath.Ext(name))
	case ".br":
		// Brotli has no stream trailer to validate up front; errors
		// surface on first read.
		rc = &layeredCloser{Reader: brotli.NewReader(f), closers: []io.Closer{f}}
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".jsonl", ".ndjson", ".json":
		return NewJSONLines(rc), nil
	case ".csv":
		return NewCSV(rc), nil
	default:
		rc.Close()
		return nil, fmt.Errorf("unsupported file format %q", filepath.Ext(name))
	}
}

// layeredCloser reads from a decompressor while closing both the
// decompressor and the underlying file.
type layeredCloser struct {
	io.Reader
	closers []io.Closer
}

func (l *layeredCloser) Close() error {
	var first error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Memory is an in-memory Source over a record slice. Used by tests
// and the HTTP API.
type Memory struct {
	recs []value.Record
	pos  int
}

// NewMemory wraps a record slice.
func NewMemory(recs []value.Record) *Memory {
	return &Memory{recs: recs}
}

// Next returns the next record or io.EOF.
func (m *Memory) Next() (value.Record, error) {
	if m.pos >= len(m.recs) {
		return value.Record{}, io.EOF
	}
	r := m.recs[m.pos]
	m.pos++
	return r, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// Collect drains up to limit records from a source. Helper for
// callers that want a bounded sample slice.
func Collect(src Source, limit int) ([]value.Record, error) {
	var recs []value.Record
	for limit <= 0 || len(recs) < limit {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return recs, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
