package tabular

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ReadXLSXRecords reads the first sheet of an XLSX workbook, treating the
// first row as the header, and returns one Record per data row. Trailing
// cells beyond the header width are dropped.
func ReadXLSXRecords(path string) ([]Record, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: open xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("tabular: xlsx %s has no sheets", path)
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	header := rowToStrings(sheet.Rows[0])

	var records []Record
	for _, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		rec := make(Record, len(header))
		for i, col := range header {
			if i < len(cells) {
				rec[col] = cells[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func rowToStrings(row *xlsx.Row) []string {
	out := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		out[i] = cell.String()
	}
	return out
}
