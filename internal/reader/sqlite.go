package reader

import (
	"database/sql"
	"fmt"
	"io"
	"regexp"

	_ "github.com/glebarez/go-sqlite"
	"github.com/semscan/semscan/internal/value"
)

// SQLite reads rows from a table in a SQLite database file. Column
// order follows the table definition, so the report's field order
// matches what the schema author wrote.
type SQLite struct {
	db   *sql.DB
	rows *sql.Rows
	cols []string
}

// tableNamePattern guards the identifier we interpolate into the
// query — placeholders cannot carry table names.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// OpenSQLite opens a database file and starts reading a table.
// limit <= 0 reads the whole table.
func OpenSQLite(path, table string, limit int) (*SQLite, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}

	query := fmt.Sprintf("SELECT * FROM %s", table)
	var rows *sql.Rows
	if limit > 0 {
		rows, err = db.Query(query+" LIMIT ?", limit)
	} else {
		rows, err = db.Query(query)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("querying table %s: %w", table, err)
	}

	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		db.Close()
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}

	return &SQLite{db: db, rows: rows, cols: cols}, nil
}

// Next scans the next row into a record.
func (s *SQLite) Next() (value.Record, error) {
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return value.Record{}, err
		}
		return value.Record{}, io.EOF
	}

	cells := make([]any, len(s.cols))
	ptrs := make([]any, len(s.cols))
	for i := range cells {
		ptrs[i] = &cells[i]
	}
	if err := s.rows.Scan(ptrs...); err != nil {
		return value.Record{}, fmt.Errorf("scanning row: %w", err)
	}

	rec := value.NewRecord()
	for i, col := range s.cols {
		rec.Set(col, value.FromAny(cells[i]))
	}
	return rec, nil
}

// Close releases the result set and the database handle.
func (s *SQLite) Close() error {
	s.rows.Close()
	return s.db.Close()
}
