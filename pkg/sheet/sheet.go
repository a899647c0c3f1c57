// Package sheet converts spreadsheets into JSON objects keyed by a
// reference column.
//
// The first sheet is read, its first row supplies the column headers, and
// every following row becomes an object of header to cell value. Objects
// are keyed by the value in the key column (Reference by default):
//
//	{
//	  "APP-1": {"Reference": "APP-1", "Name": "App A", "Version": "1.0"},
//	  "APP-2": {"Reference": "APP-2", "Name": "App B", "Version": "2.0"}
//	}
//
// When a key repeats, the last row wins but keeps the position of the first.
// Rows without a key are skipped and reported in [Table.Skipped]. Empty
// cells are omitted from their object.
//
// Excel workbooks (.xlsx, .xlsm) are read with excelize; .csv files with
// encoding/csv.
package sheet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmap/pkg/errors"
)

// DefaultKeyColumn is the column rows are keyed by.
const DefaultKeyColumn = "Reference"

// Options configures a conversion. The zero value is ready to use.
type Options struct {
	// KeyColumn names the column whose value keys each row.
	KeyColumn string
	// Sheet selects a workbook sheet by name. Empty means the first sheet.
	Sheet string
	// Logger receives a warning per skipped row. Nil discards them.
	Logger *log.Logger
}

func (o Options) keyColumn() string {
	if o.KeyColumn == "" {
		return DefaultKeyColumn
	}
	return o.KeyColumn
}

// Record is one converted row.
type Record map[string]string

// Skipped describes a row left out of the table.
type Skipped struct {
	Row    int    // 1-based spreadsheet row number
	Reason string
}

// Table is a converted sheet.
type Table struct {
	Headers []string
	Keys    []string // in order of first appearance
	Rows    map[string]Record
	Skipped []Skipped
}

// Len returns the number of keyed rows.
func (t *Table) Len() int { return len(t.Keys) }

// Get returns the row stored under key.
func (t *Table) Get(key string) (Record, bool) {
	r, ok := t.Rows[key]
	return r, ok
}

// Convert reads the spreadsheet at path, choosing the reader by extension.
func Convert(path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(filepath.Base(path), f, opts)
}

// Read converts r, choosing the reader by the extension of name.
func Read(name string, r io.Reader, opts Options) (*Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(r, opts)
	case ".csv":
		return ReadCSV(r, opts)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported spreadsheet type %q", filepath.Ext(name))
	}
}

// fromRows builds a table from raw rows, the first being the header.
func fromRows(rows [][]string, opts Options) (*Table, error) {
	key := opts.keyColumn()
	t := &Table{Rows: make(map[string]Record)}
	if len(rows) == 0 {
		return t, nil
	}

	t.Headers = make([]string, len(rows[0]))
	keyIdx := -1
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		t.Headers[i] = h
		if h == key && keyIdx < 0 {
			keyIdx = i
		}
	}
	if keyIdx < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "key column %q not found in header", key)
	}

	for n, cells := range rows[1:] {
		rowNum := n + 2
		if isBlank(cells) {
			continue
		}
		rec := make(Record, len(t.Headers))
		for i, h := range t.Headers {
			if h == "" || i >= len(cells) {
				continue
			}
			if v := strings.TrimSpace(cells[i]); v != "" {
				rec[h] = v
			}
		}

		k, ok := rec[key]
		if !ok {
			t.Skipped = append(t.Skipped, Skipped{Row: rowNum, Reason: "missing " + key})
			if opts.Logger != nil {
				opts.Logger.Warn("skipped row without key", "row", rowNum, "column", key)
			}
			continue
		}
		if _, seen := t.Rows[k]; !seen {
			t.Keys = append(t.Keys, k)
		} else if opts.Logger != nil {
			opts.Logger.Debug("duplicate key replaces earlier row", "row", rowNum, "key", k)
		}
		t.Rows[k] = rec
	}
	return t, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// WriteJSON writes the table as an indented JSON object keyed by row key.
// Keys keep first-appearance order and fields keep header order. A repeated
// header is written once, with the value of its last column.
func (t *Table) WriteJSON(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, k := range t.Keys {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		writeString(&buf, k)
		buf.WriteString(": {")

		rec := t.Rows[k]
		first := true
		written := make(map[string]bool, len(rec))
		for _, h := range t.Headers {
			v, ok := rec[h]
			if !ok || written[h] {
				continue
			}
			written[h] = true
			if !first {
				buf.WriteString(",")
			}
			first = false
			buf.WriteString("\n    ")
			writeString(&buf, h)
			buf.WriteString(": ")
			writeString(&buf, v)
		}
		if !first {
			buf.WriteString("\n  ")
		}
		buf.WriteString("}")
	}
	if len(t.Keys) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")

	_, err := w.Write(buf.Bytes())
	return err
}

func writeString(buf *bytes.Buffer, s string) {
	data, _ := json.Marshal(s)
	buf.Write(data)
}
