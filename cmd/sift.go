package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eanna95/trevilleroofing/internal/establishment"
	"github.com/eanna95/trevilleroofing/internal/tabular"
)

var (
	siftInput  string
	siftFilter string
	siftOutput string
	siftFrom   string
)

var siftCmd = &cobra.Command{
	Use:   "sift",
	Short: "Extract establishment rows matching a filter company list",
	Long: `Streams an establishment file and keeps rows whose company name matches
an entry of the filter list by canonical name, aggregating establishments
of the same company into one row. With --from=filter the output has one
row per filter entry, blank when nothing matched.

Example:
  treville sift -i osha_ita300a_2022.csv -f prospects.csv -o sifted.tsv --from filter`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		canon, err := newCanonicalizer()
		if err != nil {
			return err
		}

		_, filterRows, err := tabular.ReadTable(siftFilter)
		if err != nil {
			return eris.Wrapf(err, "sift: read filter %s", siftFilter)
		}
		fl, fstats := establishment.LoadFilter(filterRows, canon)
		zap.L().Info("loaded filter list",
			zap.String("file", siftFilter),
			zap.Int("entries", fl.Len()),
			zap.Int("empty_names", fstats.EmptyNames),
			zap.Int("dropped_empty_key", fstats.DroppedEmptyKey))

		recCh, errCh, closeInput, err := streamEstablishments(cmd.Context(), siftInput)
		if err != nil {
			return err
		}
		defer closeInput()

		var (
			out    []tabular.Record
			sstats establishment.SiftStats
		)
		switch siftFrom {
		case "input":
			out, sstats, err = establishment.SiftByInput(recCh, errCh, fl)
		case "filter":
			out, sstats, err = establishment.SiftByFilter(recCh, errCh, fl)
		default:
			return eris.Errorf("sift: unknown --from %q (want input or filter)", siftFrom)
		}
		if err != nil {
			return eris.Wrapf(err, "sift: read input %s", siftInput)
		}
		zap.L().Info("sifted establishments",
			zap.String("file", siftInput),
			zap.Int("rows", sstats.Rows),
			zap.Int("matched", sstats.Matched),
			zap.Int("companies", sstats.Companies),
			zap.Int("output_rows", len(out)))

		if err := tabular.WriteTable(siftOutput, establishment.OutputColumns, out); err != nil {
			return eris.Wrap(err, "sift: write output")
		}
		zap.L().Info("wrote sifted dataset", zap.String("output", siftOutput))
		return nil
	},
}

// streamEstablishments opens the input as a record stream. XLSX workbooks
// cannot be streamed, so they are read whole and replayed through closed
// channels.
func streamEstablishments(ctx context.Context, path string) (<-chan tabular.Record, <-chan error, func(), error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		rows, err := tabular.ReadXLSXRecords(path)
		if err != nil {
			return nil, nil, nil, eris.Wrapf(err, "sift: read input %s", path)
		}
		recCh := make(chan tabular.Record, len(rows))
		for _, rec := range rows {
			recCh <- rec
		}
		close(recCh)
		errCh := make(chan error, 1)
		close(errCh)
		return recCh, errCh, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, eris.Wrapf(err, "sift: open input %s", path)
	}
	recCh, errCh := tabular.StreamRecords(ctx, f, tabular.Options{Delimiter: tabular.DelimiterFor(path)})
	return recCh, errCh, func() { _ = f.Close() }, nil
}

func init() {
	siftCmd.Flags().StringVarP(&siftInput, "input", "i", "", "establishment file to sift (csv, tsv, or xlsx)")
	siftCmd.Flags().StringVarP(&siftFilter, "filter", "f", "", "filter company list")
	siftCmd.Flags().StringVarP(&siftOutput, "output", "o", "", "output pipe-delimited file")
	siftCmd.Flags().StringVar(&siftFrom, "from", "input", "row ordering: input (matched rows) or filter (one row per filter entry)")
	_ = siftCmd.MarkFlagRequired("input")
	_ = siftCmd.MarkFlagRequired("filter")
	_ = siftCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(siftCmd)
}
