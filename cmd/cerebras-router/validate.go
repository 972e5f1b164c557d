package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coderashed/cerebras-code-mcp/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file, apply defaults and environment overrides,
and report any validation errors.

Examples:
  # Validate the default config
  cerebras-router validate

  # Validate a specific file
  cerebras-router validate --config /etc/cerebras-router/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithEnv(cfgFile)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Configuration valid: %s\n", cfgFile)
		fmt.Printf("  strategy:    %s\n", cfg.Strategy)
		fmt.Printf("  credentials: %d\n", len(cfg.Credentials))
		fmt.Printf("  models:      %d\n", len(cfg.Models))
		fmt.Printf("  usage:       %s\n", cfg.Usage.Backend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
