package reader

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/semscan/semscan/internal/value"
)

// CSV reads comma-separated rows. The first row is the header and
// supplies the field names; every cell is a string value — the
// analyzer's type inference takes it from there.
type CSV struct {
	rc     io.ReadCloser
	reader *csv.Reader
	header []string
	row    int
}

// NewCSV wraps a reader of CSV data.
func NewCSV(rc io.ReadCloser) *CSV {
	r := csv.NewReader(rc)
	// Ragged rows happen in the wild; keep reading and let missing
	// cells surface as nulls.
	r.FieldsPerRecord = -1
	return &CSV{rc: rc, reader: r}
}

// Next returns the next data row as a record.
func (c *CSV) Next() (value.Record, error) {
	if c.header == nil {
		hdr, err := c.reader.Read()
		if err == io.EOF {
			return value.Record{}, io.EOF
		}
		if err != nil {
			return value.Record{}, fmt.Errorf("reading csv header: %w", err)
		}
		c.header = hdr
	}

	row, err := c.reader.Read()
	if err == io.EOF {
		return value.Record{}, io.EOF
	}
	if err != nil {
		return value.Record{}, fmt.Errorf("csv row %d: %w", c.row+1, err)
	}
	c.row++

	rec := value.NewRecord()
	for i, field := range c.header {
		if i < len(row) {
			rec.Set(field, value.StrValue(row[i]))
		} else {
			rec.Set(field, value.NullValue())
		}
	}
	return rec, nil
}

// Close closes the underlying reader.
func (c *CSV) Close() error { return c.rc.Close() }
