package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tripworks/costing-gpt/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "costing-gpt",
	Short: "Travel costing service with document tariff extraction",
	Long:  "Extracts hotel tariffs from uploaded documents via a structured-model, regex, and LLM cascade, reconciles them into a normalized rate database, and answers costing questions through a tool-calling chat assistant.",
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
