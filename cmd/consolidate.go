package main

import (
	"sync"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eanna95/trevilleroofing/internal/consolidate"
	"github.com/eanna95/trevilleroofing/internal/tabular"
)

var (
	consolidateInputs []string
	consolidateOutput string
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Consolidate per-year company files into one row per company",
	Long: `Aggregates establishment rows within each year file, then links years
together: records sharing an EIN are always the same company, EIN-less
records link by canonical name. Year labels come from a _YYYY filename
suffix.

Example:
  treville consolidate -i osha_2021.csv -i osha_2022.csv -o consolidated.tsv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		canon, err := newCanonicalizer()
		if err != nil {
			return err
		}

		var mu sync.Mutex
		perYear := make(map[string]*consolidate.YearMap, len(consolidateInputs))

		g, gCtx := errgroup.WithContext(cmd.Context())
		g.SetLimit(4)
		for _, path := range consolidateInputs {
			g.Go(func() error {
				year := yearFromFilename(path)
				rows, err := readRecords(gCtx, path)
				if err != nil {
					return eris.Wrapf(err, "consolidate: read %s", path)
				}
				ests := make([]consolidate.Establishment, 0, len(rows))
				for _, rec := range rows {
					ests = append(ests, consolidate.EstablishmentFromRecord(rec))
				}
				ym, stats := consolidate.AggregateYear(year, ests, canon)

				mu.Lock()
				defer mu.Unlock()
				if _, ok := perYear[year]; ok {
					return eris.Errorf("consolidate: two input files for year %s", year)
				}
				perYear[year] = ym
				zap.L().Info("aggregated year file",
					zap.String("file", path),
					zap.String("year", year),
					zap.Int("rows", stats.Rows),
					zap.Int("companies", ym.Len()),
					zap.Int("skipped_empty_name", stats.SkippedEmptyName),
					zap.Int("dropped_empty_key", stats.DroppedEmptyKey))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		set, stats := consolidate.ConsolidateYears(perYear, canon)
		zap.L().Info("consolidated years",
			zap.Int("identities", set.Len()),
			zap.Int("identifier_merges", stats.IdentifierMerges),
			zap.Int("name_merges", stats.NameMerges),
			zap.Int("standalone", stats.Standalone),
			zap.Int("identifier_collisions", stats.IdentifierCollisions),
			zap.Int("key_collisions", stats.KeyCollisions))

		columns := consolidate.ConsolidatedColumns(set.Years)
		if err := tabular.WriteRows(consolidateOutput, columns, consolidate.Rows(set, columns)); err != nil {
			return eris.Wrap(err, "consolidate: write output")
		}
		zap.L().Info("wrote consolidated dataset", zap.String("output", consolidateOutput))
		return nil
	},
}

func init() {
	consolidateCmd.Flags().StringArrayVarP(&consolidateInputs, "input", "i", nil, "per-year company file (repeatable; csv, tsv, or xlsx)")
	consolidateCmd.Flags().StringVarP(&consolidateOutput, "output", "o", "", "output pipe-delimited file")
	_ = consolidateCmd.MarkFlagRequired("input")
	_ = consolidateCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(consolidateCmd)
}
