package main

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eanna95/trevilleroofing/internal/tabular"
	"github.com/eanna95/trevilleroofing/internal/terms"
)

var (
	termsInput  string
	termsOutput string
)

// namePlaceholder is the value some CRM exports leave in the name column
// when no company was selected.
const namePlaceholder = "- Select -"

var termsCmd = &cobra.Command{
	Use:   "terms",
	Short: "Pick a minimal keyword set covering a company list",
	Long: `Reads the company_name column of the input file and greedily selects
the smallest set of search keywords that together cover every company,
one term per output line. Feed the result to the fetch command.

Example:
  treville terms -i merged.tsv -o terms.txt`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, rows, err := tabular.ReadTable(termsInput)
		if err != nil {
			return eris.Wrapf(err, "terms: read %s", termsInput)
		}

		companies := make([]string, 0, len(rows))
		for _, rec := range rows {
			name := strings.TrimSpace(rec["company_name"])
			if name == "" || name == namePlaceholder {
				continue
			}
			companies = append(companies, name)
		}
		if len(companies) == 0 {
			return eris.Errorf("terms: no company names in %s", termsInput)
		}

		selected, uncoverable := terms.SelectMinimal(companies)
		for _, name := range uncoverable {
			zap.S().Warnw("company has no searchable keywords", "company", name)
		}

		var sb strings.Builder
		for _, t := range selected {
			sb.WriteString(t.Term)
			sb.WriteByte('\n')
		}
		if err := os.WriteFile(termsOutput, []byte(sb.String()), 0o644); err != nil {
			return eris.Wrapf(err, "terms: write %s", termsOutput)
		}
		zap.L().Info("wrote search terms",
			zap.String("output", termsOutput),
			zap.Int("companies", len(companies)),
			zap.Int("terms", len(selected)),
			zap.Int("uncoverable", len(uncoverable)))
		return nil
	},
}

func init() {
	termsCmd.Flags().StringVarP(&termsInput, "input", "i", "", "company file with a company_name column")
	termsCmd.Flags().StringVarP(&termsOutput, "output", "o", "", "output file, one search term per line")
	_ = termsCmd.MarkFlagRequired("input")
	_ = termsCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(termsCmd)
}
