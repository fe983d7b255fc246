package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brandatlas/footprint/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "footprint",
	Short: "Two-brand retail footprint analytics",
	Long:  "Loads store and venue feeds for a focal brand and its rival, classifies competitive standing per venue, and serves a drillable choropleth dashboard over province and city boundaries.",
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
