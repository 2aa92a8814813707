package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// csvCodec handles comma- and tab-separated files.
type csvCodec struct {
	delimiter rune
	bom       bool
}

func (c *csvCodec) read(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "table: open csv")
	}
	defer f.Close() //nolint:errcheck

	br := bufio.NewReader(f)
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		c.bom = true
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.Comma = c.delimiter
	reader.FieldsPerRecord = -1 // allow ragged rows

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, eris.Errorf("table: %s is empty", path)
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "table: read csv header")
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, eris.Wrap(err, "table: read csv row")
		}
		rows = append(rows, record)
	}

	return header, rows, nil
}

func (c *csvCodec) write(path string, t *Table) error {
	return replaceFile(path, func(f *os.File) error {
		if c.bom {
			if _, err := f.Write(utf8BOM); err != nil {
				return eris.Wrap(err, "table: write bom")
			}
		}

		w := csv.NewWriter(f)
		w.Comma = c.delimiter
		if err := w.WriteAll(t.records()); err != nil {
			return eris.Wrap(err, "table: write csv")
		}
		return nil
	})
}
