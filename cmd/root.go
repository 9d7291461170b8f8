package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scout-group/discover-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "discover-cli",
	Short: "Startup and spinout discovery pipeline",
	Long:  "Discovers organizational candidates from LLM output and scraped web sources, deduplicates, scores, verifies, and persists them as leads.",
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
