// Package ingest reads uploaded CSV files into rows ready for scoring.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

const (
	ColumnText      = "text"
	ColumnID        = "id"
	ColumnTimestamp = "timestamp"
)

var (
	ErrMissingTextColumn = errors.New("CSV must contain a 'text' column")
	ErrEmptyFile         = errors.New("no columns to parse from file")
	ErrNotUTF8           = errors.New("file is not valid UTF-8")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseError reports malformed CSV content. Its message is safe to return
// to the caller.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

type Row struct {
	ID        string
	Text      string
	Timestamp string
}

// Table is the parsed upload. HasID and HasTimestamp report which optional
// columns were present in the header.
type Table struct {
	Rows         []Row
	HasID        bool
	HasTimestamp bool
}

// ParseCSV reads a header row followed by data rows. Rows shorter than the
// header read missing cells as empty; rows longer than the header are an
// error. Blank lines are skipped. A quote inside an unquoted field is kept
// as a literal character.
func ParseCSV(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, &ParseError{Err: ErrNotUTF8}
	}

	table, err := parseTable(data, false)
	if errors.Is(err, csv.ErrBareQuote) {
		// lazy mode also accepts an unterminated quoted field at EOF, so it
		// is only used once the strict pass has seen a bare quote
		table, err = parseTable(data, true)
	}
	return table, err
}

func parseTable(data []byte, lazyQuotes bool) (*Table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = lazyQuotes

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: ErrEmptyFile}
	}
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	columns := indexColumns(header)
	textIdx, ok := columns[ColumnText]
	if !ok {
		return nil, ErrMissingTextColumn
	}
	idIdx, hasID := columns[ColumnID]
	tsIdx, hasTS := columns[ColumnTimestamp]

	table := &Table{HasID: hasID, HasTimestamp: hasTS}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}

		if len(record) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, &ParseError{Err: fmt.Errorf("expected %d fields in line %d, saw %d",
				len(header), line, len(record))}
		}

		row := Row{Text: cell(record, textIdx)}
		if hasID {
			row.ID = cell(record, idIdx)
		}
		if hasTS {
			row.Timestamp = cell(record, tsIdx)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// indexColumns maps each header name to its first position.
func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
	}
	return columns
}

func cell(record []string, idx int) string {
	if idx < len(record) {
		return record[idx]
	}
	return ""
}
