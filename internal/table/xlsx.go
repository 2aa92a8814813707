package table

import (
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// xlsxCodec reads the first sheet of a workbook and writes changes back into
// the same workbook, so cells the caller did not change keep their type and
// style.
type xlsxCodec struct {
	file  *xlsx.File
	sheet *xlsx.Sheet
}

func (c *xlsxCodec) read(path string) ([]string, [][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "table: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, nil, eris.Errorf("table: %s has no sheets", path)
	}

	sheet := f.Sheets[0]
	var header []string
	var rows [][]string
	for i, row := range sheet.Rows {
		cells := rowToStrings(row)
		if i == 0 {
			header = cells
			continue
		}
		rows = append(rows, cells)
	}

	c.file = f
	c.sheet = sheet
	return trimTrailingEmpty(header), rows, nil
}

func (c *xlsxCodec) write(path string, t *Table) error {
	if c.file == nil {
		c.file = xlsx.NewFile()
		sheet, err := c.file.AddSheet("Sheet1")
		if err != nil {
			return eris.Wrap(err, "table: add sheet")
		}
		c.sheet = sheet
	}

	for r, record := range t.records() {
		for col, value := range record {
			cell := c.sheet.Cell(r, col)
			if cell.String() == value {
				continue
			}
			setCell(cell, value)
		}
	}

	return replaceFile(path, func(f *os.File) error {
		if err := c.file.Write(f); err != nil {
			return eris.Wrap(err, "table: write xlsx")
		}
		return nil
	})
}

// setCell stores numeric strings as numbers and everything else as text.
func setCell(cell *xlsx.Cell, value string) {
	if value == "" {
		cell.SetString("")
		return
	}
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		cell.SetFloat(n)
		return
	}
	cell.SetString(value)
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

// trimTrailingEmpty drops blank cells at the end of the header row, which
// spreadsheet editors leave behind after clearing a column.
func trimTrailingEmpty(cells []string) []string {
	end := len(cells)
	for end > 0 && cells[end-1] == "" {
		end--
	}
	return cells[:end]
}
