package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/cfsim/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "cfsim",
	Short: "Demographic counterfactual simulation",
	Long:  "Decomposes per-cell outcomes into demographic status shares, applies a counterfactual shift of those shares, and reports population-weighted baseline and alternative totals per year.",
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
