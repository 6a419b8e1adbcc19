package tabular

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ReadXLSX reads the sheet at sheetIndex of an XLSX workbook. The first row
// is the header.
func ReadXLSX(path string, sheetIndex int) ([]Record, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	if sheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", sheetIndex, len(f.Sheets))
	}

	sheet := f.Sheets[sheetIndex]
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		rows = append(rows, rowToStrings(row))
	}
	return toRecords(rows), nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

// Sheet is one worksheet to write.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// WriteXLSX writes sheets to a new workbook at path.
func WriteXLSX(path string, sheets ...Sheet) error {
	f := xlsx.NewFile()
	for _, s := range sheets {
		sheet, err := f.AddSheet(s.Name)
		if err != nil {
			return eris.Wrapf(err, "xlsx: add sheet %s", s.Name)
		}
		if len(s.Header) > 0 {
			addRow(sheet, s.Header)
		}
		for _, r := range s.Rows {
			addRow(sheet, r)
		}
	}
	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "xlsx: save file")
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
