package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  "Prints the merged configuration (defaults, config.yaml, environment) as YAML. Secrets are redacted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		redacted := *cfg
		if redacted.LLM.Key != "" {
			redacted.LLM.Key = "***"
		}
		if redacted.Analyzer.Key != "" {
			redacted.Analyzer.Key = "***"
		}
		if redacted.Blob.SecretKey != "" {
			redacted.Blob.SecretKey = "***"
		}
		if redacted.Store.DatabaseURL != "" {
			redacted.Store.DatabaseURL = "***"
		}

		out, err := yaml.Marshal(&redacted)
		if err != nil {
			return eris.Wrap(err, "marshal config")
		}
		cmd.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
