package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eanna95/trevilleroofing/internal/consolidate"
	"github.com/eanna95/trevilleroofing/internal/tabular"
)

var (
	mergeBase    string
	mergeAdded   []string
	mergeCombine []string
	mergeOutput  string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge source lists into a consolidated company dataset",
	Long: `Matches each source file's companies against a consolidated dataset by
canonical name and annotates matches with the source's name and website
columns. Files given with --added create new zero-measure rows for
companies with no match; files given with --combine discard them.

Example:
  treville merge -b consolidated.tsv -a crm_export.csv -c directory.csv -o merged.tsv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if len(mergeAdded) == 0 && len(mergeCombine) == 0 {
			return eris.New("merge: at least one --added or --combine file required")
		}
		canon, err := newCanonicalizer()
		if err != nil {
			return err
		}

		columns, rows, err := tabular.ReadTable(mergeBase)
		if err != nil {
			return eris.Wrapf(err, "merge: read base %s", mergeBase)
		}
		set, err := consolidate.LoadBase(rows, columns, canon)
		if err != nil {
			return eris.Wrapf(err, "merge: load base %s", mergeBase)
		}
		zap.L().Info("loaded base dataset",
			zap.String("file", mergeBase),
			zap.Int("companies", set.Len()),
			zap.Strings("years", set.Years))

		merge := func(path string, combine bool) error {
			records, skipped, err := tabular.ReadSourceFile(path)
			if err != nil {
				return eris.Wrapf(err, "merge: read source %s", path)
			}
			if skipped > 0 {
				zap.S().Warnw("skipped source rows with empty company name",
					"file", path, "skipped", skipped)
			}
			prefix := sourcePrefix(path)
			var stats consolidate.MergeStats
			if combine {
				stats = consolidate.MergeCombine(set, records, prefix, canon)
			} else {
				stats = consolidate.MergeAdded(set, records, prefix, canon)
			}
			zap.L().Info("merged source file",
				zap.String("file", path),
				zap.String("prefix", prefix),
				zap.Bool("combine", combine),
				zap.Int("records", stats.Records),
				zap.Int("matched", stats.Matched),
				zap.Int("updated", stats.Updated),
				zap.Int("added", stats.Added),
				zap.Int("discarded", stats.Discarded),
				zap.Int("unmatchable", stats.Unmatchable))
			return nil
		}
		for _, path := range mergeAdded {
			if err := merge(path, false); err != nil {
				return err
			}
		}
		for _, path := range mergeCombine {
			if err := merge(path, true); err != nil {
				return err
			}
		}

		set.EnsureDisplayNames()
		columns = consolidate.MergedColumns(set)
		if err := tabular.WriteRows(mergeOutput, columns, consolidate.Rows(set, columns)); err != nil {
			return eris.Wrap(err, "merge: write output")
		}
		zap.L().Info("wrote merged dataset",
			zap.String("output", mergeOutput),
			zap.Int("companies", set.Len()))
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeBase, "base", "b", "", "consolidated dataset to merge into")
	mergeCmd.Flags().StringArrayVarP(&mergeAdded, "added", "a", nil, "source file whose unmatched companies are added (repeatable)")
	mergeCmd.Flags().StringArrayVarP(&mergeCombine, "combine", "c", nil, "source file whose unmatched companies are discarded (repeatable)")
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "output pipe-delimited file")
	_ = mergeCmd.MarkFlagRequired("base")
	_ = mergeCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(mergeCmd)
}
