package tabular

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadTable loads a whole delimited file into memory, preserving the header
// order. The delimiter comes from the file extension. Intended for the
// smaller datasets (filter lists, consolidated outputs); the establishment
// files go through StreamRecords instead.
func ReadTable(path string) ([]string, []Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "tabular: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	decoded := transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.Comma = DelimiterFor(path)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, eris.Wrapf(err, "tabular: read header %s", path)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			return header, rows, nil
		}
		if err != nil {
			return nil, nil, eris.Wrapf(err, "tabular: read row %s", path)
		}
		rec := make(Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		rows = append(rows, rec)
	}
}
