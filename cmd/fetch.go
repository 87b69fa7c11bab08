package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eanna95/trevilleroofing/internal/store"
	"github.com/eanna95/trevilleroofing/internal/tabular"
	"github.com/eanna95/trevilleroofing/pkg/affinity"
)

var (
	fetchTermsFile  string
	fetchOutput     string
	fetchCheckpoint string
)

var fetchOutputColumns = []string{
	"name",
	"domain",
	"latest_interaction_date",
	"latest_interaction_person_ids",
	"search_term",
	"affinity_id",
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch CRM organizations for a list of search terms",
	Long: `Searches the Affinity CRM for every term in the input file and writes
the organizations with interaction history to a pipe-delimited file.
Progress is checkpointed so an interrupted run resumes where it stopped.

Example:
  TREVILLE_AFFINITY_KEY=... treville fetch -t terms.txt -o organizations.tsv --checkpoint roofing-2026`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("fetch"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		terms, err := readTermLines(fetchTermsFile)
		if err != nil {
			return err
		}
		if len(terms) == 0 {
			return eris.Errorf("fetch: no search terms in %s", fetchTermsFile)
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "fetch: migrate checkpoint store")
		}

		cp, err := st.GetCheckpoint(ctx, fetchCheckpoint)
		if err != nil {
			return eris.Wrap(err, "fetch: load checkpoint")
		}
		if cp == nil {
			cp = &store.Checkpoint{}
		} else if len(cp.CompletedTerms) > 0 {
			zap.L().Info("resuming from checkpoint",
				zap.String("checkpoint", fetchCheckpoint),
				zap.String("run_id", cp.RunID),
				zap.Int("completed_terms", len(cp.CompletedTerms)),
				zap.Int("organizations", len(cp.Organizations)))
		}
		done := make(map[string]bool, len(cp.CompletedTerms))
		for _, t := range cp.CompletedTerms {
			done[t] = true
		}

		client := affinity.NewClient(cfg.Affinity.Key,
			affinity.WithBaseURL(cfg.Affinity.BaseURL),
			affinity.WithRateLimit(cfg.Affinity.RateLimit))

		sinceSave := 0
		for _, term := range terms {
			if done[term] {
				continue
			}
			if err := ctx.Err(); err != nil {
				break
			}

			orgs, err := client.SearchOrganizations(ctx, term)
			if err != nil {
				// Persist progress before surfacing the failure so the
				// retry skips everything already fetched.
				if perr := st.PutCheckpoint(context.WithoutCancel(ctx), fetchCheckpoint, cp); perr != nil {
					zap.S().Warnw("checkpoint save failed", "error", perr)
				}
				return eris.Wrapf(err, "fetch: search %q", term)
			}
			cp.Organizations = append(cp.Organizations, orgs...)
			cp.CompletedTerms = append(cp.CompletedTerms, term)
			done[term] = true
			zap.L().Info("fetched term",
				zap.String("term", term),
				zap.Int("organizations", len(orgs)),
				zap.Int("total", len(cp.Organizations)))

			sinceSave++
			if sinceSave >= cfg.Fetch.CheckpointEvery {
				if err := st.PutCheckpoint(ctx, fetchCheckpoint, cp); err != nil {
					return eris.Wrap(err, "fetch: save checkpoint")
				}
				sinceSave = 0
			}
		}

		if err := st.PutCheckpoint(context.WithoutCancel(ctx), fetchCheckpoint, cp); err != nil {
			return eris.Wrap(err, "fetch: save checkpoint")
		}
		if err := ctx.Err(); err != nil {
			zap.L().Warn("fetch interrupted, progress checkpointed",
				zap.String("checkpoint", fetchCheckpoint),
				zap.Int("completed_terms", len(cp.CompletedTerms)),
				zap.Int("remaining_terms", len(terms)-len(cp.CompletedTerms)))
			return err
		}

		orgs := affinity.Dedupe(cp.Organizations)
		rows := make([][]string, 0, len(orgs))
		for _, o := range orgs {
			rows = append(rows, []string{
				o.Name,
				o.Domain,
				o.LatestInteractionDate,
				o.LatestInteractionPersonIDs,
				o.SearchTerm,
				strconv.FormatInt(o.AffinityID, 10),
			})
		}
		if err := tabular.WriteRows(fetchOutput, fetchOutputColumns, rows); err != nil {
			return eris.Wrap(err, "fetch: write output")
		}
		zap.L().Info("wrote organizations",
			zap.String("output", fetchOutput),
			zap.Int("fetched", len(cp.Organizations)),
			zap.Int("after_dedupe", len(orgs)))
		return nil
	},
}

// openStore builds the configured checkpoint backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("fetch: unknown store driver %q", cfg.Store.Driver)
	}
}

// readTermLines reads one search term per line, skipping blanks.
func readTermLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: open terms file %s", path)
	}
	defer f.Close() //nolint:errcheck

	var terms []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			terms = append(terms, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "fetch: read terms file %s", path)
	}
	return terms, nil
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchTermsFile, "terms", "t", "", "file with one search term per line")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "output pipe-delimited file")
	fetchCmd.Flags().StringVar(&fetchCheckpoint, "checkpoint", "default", "checkpoint name for resumable runs")
	_ = fetchCmd.MarkFlagRequired("terms")
	_ = fetchCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(fetchCmd)
}
