package reader

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/semscan/semscan/internal/value"
)

// JSONLines reads newline-delimited JSON objects. Field order within
// a record follows the document order of the object's keys, which
// keeps column order stable across runs.
type JSONLines struct {
	rc      io.ReadCloser
	scanner *bufio.Scanner
	line    int
}

// NewJSONLines wraps a reader of newline-delimited JSON.
func NewJSONLines(rc io.ReadCloser) *JSONLines {
	sc := bufio.NewScanner(rc)
	// Rows can be wide; allow lines up to 4 MiB.
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &JSONLines{rc: rc, scanner: sc}
}

// Next decodes the next non-blank line into a record.
func (j *JSONLines) Next() (value.Record, error) {
	for j.scanner.Scan() {
		j.line++
		line := strings.TrimSpace(j.scanner.Text())
		if line == "" {
			continue
		}
		rec, err := decodeObject(line)
		if err != nil {
			return value.Record{}, fmt.Errorf("line %d: %w", j.line, err)
		}
		return rec, nil
	}
	if err := j.scanner.Err(); err != nil {
		return value.Record{}, err
	}
	return value.Record{}, io.EOF
}

// Close closes the underlying reader.
func (j *JSONLines) Close() error { return j.rc.Close() }

// decodeObject parses one JSON object preserving key order. The
// stdlib map decode would randomize it, so key order is recovered
// from the token stream first.
func decodeObject(line string) (value.Record, error) {
	order, err := topLevelKeys(line)
	if err != nil {
		return value.Record{}, err
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		return value.Record{}, err
	}
	return value.RecordFromMap(order, m), nil
}

// topLevelKeys walks the token stream tracking key/value position at
// depth zero inside the object.
func topLevelKeys(line string) ([]string, error) {
	dec := json.NewDecoder(strings.NewReader(line))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	var keys []string
	depth := 0
	expectKey := true
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{', '[':
				depth++
			case '}', ']':
				if depth == 0 {
					return keys, nil
				}
				depth--
				if depth == 0 {
					expectKey = true
				}
			}
		case string:
			if depth == 0 && expectKey {
				keys = append(keys, t)
				expectKey = false
			} else if depth == 0 {
				expectKey = true
			}
		default:
			if depth == 0 {
				expectKey = true
			}
		}
	}
	return keys, nil
}
