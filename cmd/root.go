package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Hanoi896/risk-map/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "risk-map",
	Short: "Natural-hazard event ingestion and risk mapping",
	Long:  "Pulls events from EONET, GDACS, and ReliefWeb, scores them by severity and recency, and aggregates them into grid-cell danger zones.",
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
