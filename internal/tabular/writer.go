package tabular

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"
)

// WriteTable writes records as a pipe-delimited file with the given column
// order. Missing cells are written empty; callers pre-fill numeric defaults.
func WriteTable(path string, columns []string, rows []Record) error {
	lines := make([][]string, 0, len(rows))
	for _, row := range rows {
		line := make([]string, len(columns))
		for i, col := range columns {
			line[i] = row[col]
		}
		lines = append(lines, line)
	}
	return WriteRows(path, columns, lines)
}

// WriteRows is WriteTable for callers that already order their cells.
func WriteRows(path string, columns []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "tabular: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	w.Comma = '|'

	if err := w.Write(columns); err != nil {
		return eris.Wrap(err, "tabular: write header")
	}

	line := make([]string, len(columns))
	for _, row := range rows {
		for i := range line {
			if i < len(row) {
				line[i] = TrimQuotes(row[i])
			} else {
				line[i] = ""
			}
		}
		if err := w.Write(line); err != nil {
			return eris.Wrap(err, "tabular: write row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "tabular: flush")
	}
	return f.Sync()
}
