// Package table reads a delimited or XLSX file fully into memory, lets
// callers read and write cells by column name, and writes the result back.
package table

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// codec loads and saves one file format.
type codec interface {
	read(path string) (header []string, rows [][]string, err error)
	write(path string, t *Table) error
}

// Table is a header row plus data rows of string cells. Rows may be shorter
// than the header; missing cells read as "".
type Table struct {
	Header []string
	Rows   [][]string

	codec codec
}

// Read loads the file at path. The format is chosen by extension: .csv,
// .tsv or .xlsx. The first row is the header.
func Read(path string) (*Table, error) {
	c, err := codecFor(path)
	if err != nil {
		return nil, err
	}

	header, rows, err := c.read(path)
	if err != nil {
		return nil, err
	}
	if len(header) == 0 {
		return nil, eris.Errorf("table: %s has no header row", path)
	}

	return &Table{Header: header, Rows: rows, codec: c}, nil
}

// Write saves the table to path in the format it was read from. The file is
// replaced atomically; on error the original is left untouched.
func (t *Table) Write(path string) error {
	if t.codec == nil {
		c, err := codecFor(path)
		if err != nil {
			return err
		}
		t.codec = c
	}
	return t.codec.write(path, t)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// EnsureColumn returns the index of the named column, appending it as the
// rightmost column if absent.
func (t *Table) EnsureColumn(name string) int {
	if idx := t.ColumnIndex(name); idx >= 0 {
		return idx
	}
	t.Header = append(t.Header, name)
	return len(t.Header) - 1
}

// Get returns the cell at (row, col), or "" if the row is short.
func (t *Table) Get(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Set writes the cell at (row, col), padding the row as needed.
func (t *Table) Set(row, col int, value string) {
	for len(t.Rows[row]) <= col {
		t.Rows[row] = append(t.Rows[row], "")
	}
	t.Rows[row][col] = value
}

// records returns header and rows padded to the header width.
func (t *Table) records() [][]string {
	width := len(t.Header)
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Header)
	for _, r := range t.Rows {
		if len(r) < width {
			padded := make([]string, width)
			copy(padded, r)
			r = padded
		}
		out = append(out, r)
	}
	return out
}

func codecFor(path string) (codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return &csvCodec{delimiter: ','}, nil
	case ".tsv":
		return &csvCodec{delimiter: '\t'}, nil
	case ".xlsx":
		return &xlsxCodec{}, nil
	default:
		return nil, eris.Errorf("table: unsupported file type %q", filepath.Ext(path))
	}
}

// replaceFile writes via fill into a temp file next to path and renames it
// over path, keeping path's permissions when it exists.
func replaceFile(path string, fill func(f *os.File) error) (err error) {
	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "table: create temp file")
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "table: close temp file")
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return eris.Wrap(err, "table: chmod temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrap(err, "table: replace file")
	}
	return nil
}
