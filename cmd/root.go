package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eanna95/trevilleroofing/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "treville",
	Short: "Company identity consolidation toolkit",
	Long:  "Filters establishment-level safety data, consolidates companies across years by EIN and canonical name, merges CRM and directory sources, and pulls organizations from Affinity with resumable checkpoints.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
