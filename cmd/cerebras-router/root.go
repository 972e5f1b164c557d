package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "cerebras-router",
	Short: "Admission-controlled router for rate-limited Cerebras credentials",
	Long: `Cerebras Router spreads completion requests across multiple rate-limited
API credentials.

Each credential carries per-model request quotas over rolling minute and
hour windows plus a midnight-aligned daily window. A routing strategy
(cost, performance, balanced or roundrobin) picks the credential for each
request, and a single failover hop retries on an alternative credential
when the selected one is rate limited.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
