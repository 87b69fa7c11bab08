package main

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/eanna95/trevilleroofing/internal/match"
	"github.com/eanna95/trevilleroofing/internal/tabular"
)

// newCanonicalizer builds the configured name canonicalizer: the built-in
// suffix vocabulary unless match.suffix_file points somewhere else.
func newCanonicalizer() (*match.Canonicalizer, error) {
	if cfg.Match.SuffixFile == "" {
		return match.Default(), nil
	}
	suffixes, err := match.LoadVocabulary(cfg.Match.SuffixFile)
	if err != nil {
		return nil, eris.Wrap(err, "load suffix vocabulary")
	}
	return match.New(suffixes), nil
}

var yearSuffixRe = regexp.MustCompile(`_(\d{4})$`)

// yearFromFilename recovers the year label from names like
// osha_ita300a_2022.csv. Files without the suffix use the bare stem, which
// keeps them distinct but will not sort with real years.
func yearFromFilename(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if m := yearSuffixRe.FindStringSubmatch(stem); m != nil {
		return m[1]
	}
	return stem
}

// readRecords loads a per-year file, dispatching on extension: XLSX
// workbooks through the spreadsheet reader, everything else as delimited
// text.
func readRecords(ctx context.Context, path string) ([]tabular.Record, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return tabular.ReadXLSXRecords(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close() //nolint:errcheck

	recCh, errCh := tabular.StreamRecords(ctx, f, tabular.Options{Delimiter: tabular.DelimiterFor(path)})
	var rows []tabular.Record
	for rec := range recCh {
		rows = append(rows, rec)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return rows, nil
}

// sourcePrefix derives the column prefix a source file's annotations are
// written under: the file's base name without extension.
func sourcePrefix(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
