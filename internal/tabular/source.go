package tabular

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// SourceRecord is one row of an auxiliary company source file (web-scraped
// lead lists, CRM exports). Only the name and website columns carry meaning;
// everything else is ignored.
type SourceRecord struct {
	CompanyName string `csv:"company_name"`
	Website     string `csv:"website"`
}

// ReadSourceFile loads an auxiliary source file, skipping rows with an empty
// company name. The skipped count is returned for caller-side logging.
func ReadSourceFile(path string) ([]SourceRecord, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "tabular: open source file %s", path)
	}
	defer f.Close() //nolint:errcheck

	decoded := transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.Comma = DelimiterFor(path)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	dec, err := csvutil.NewDecoder(reader)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "tabular: decode source file %s", path)
	}
	dec.DisallowMissingColumns = false

	var records []SourceRecord
	skipped := 0
	for {
		var rec SourceRecord
		if err := dec.Decode(&rec); err == io.EOF {
			break
		} else if err != nil {
			return nil, 0, eris.Wrapf(err, "tabular: read source file %s", path)
		}
		rec.CompanyName = strings.TrimSpace(rec.CompanyName)
		rec.Website = strings.TrimSpace(rec.Website)
		if rec.CompanyName == "" {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}
