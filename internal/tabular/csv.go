// Package tabular reads and writes the delimited files and spreadsheets the
// consolidation pipeline consumes: comma- or pipe-delimited CSV (with BOM
// tolerance) and XLSX workbooks, decoded to header-keyed field maps.
package tabular

import (
	"context"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Record is one decoded row, keyed by header column name.
type Record map[string]string

// DelimiterFor picks the field delimiter from the file extension: pipe for
// .tsv exports, comma otherwise.
func DelimiterFor(path string) rune {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return '|'
	}
	return ','
}

// Options configures the streaming record reader.
type Options struct {
	Delimiter  rune // default ','
	LazyQuotes bool
}

// StreamRecords reads a delimited file with a header row and sends one
// Record per data row. The reader tolerates a UTF-8 BOM and variable field
// counts; short rows leave missing columns absent from the map. The caller
// must drain the record channel; both channels close when processing ends.
func StreamRecords(ctx context.Context, r io.Reader, opts Options) (<-chan Record, <-chan error) {
	recCh := make(chan Record, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(recCh)
		defer close(errCh)

		// Excel and some scrapers prepend a BOM; strip it so the first
		// header name doesn't come back mangled.
		decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

		reader := csv.NewReader(decoded)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1

		header, err := reader.Read()
		if err == io.EOF {
			return
		}
		if err != nil {
			errCh <- eris.Wrap(err, "tabular: read header")
			return
		}
		for i := range header {
			header[i] = strings.TrimSpace(header[i])
		}

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "tabular: context cancelled")
				return
			}

			row, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "tabular: read row")
				return
			}

			rec := make(Record, len(header))
			for i, col := range header {
				if i < len(row) {
					rec[col] = row[i]
				}
			}

			select {
			case recCh <- rec:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "tabular: context cancelled")
				return
			}
		}
	}()

	return recCh, errCh
}
