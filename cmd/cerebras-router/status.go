package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coderashed/cerebras-code-mcp/pkg/config"
	"github.com/coderashed/cerebras-code-mcp/pkg/routing"
)

var statusFlags struct {
	model  string
	format string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show quota availability across credentials",
	Long: `Show the configured quota limits and current availability for every
credential and model.

Counters are process-local, so a fresh invocation shows full availability;
the command's value is inspecting the configured quota topology and which
credential the active strategy would pick.

Examples:
  # Availability for all models
  cerebras-router status

  # One model, as JSON
  cerebras-router status --model qwen-3-coder-480b --format json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusFlags.model, "model", "m", "", "limit the report to one model")
	statusCmd.Flags().StringVarP(&statusFlags.format, "format", "f", "table", "output format: table, json")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnv(cfgFile)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}

	pool, err := buildPool(cfg, logger)
	if err != nil {
		return err
	}

	var report []routing.ModelAvailability
	if statusFlags.model != "" {
		report = []routing.ModelAvailability{pool.Availability(statusFlags.model)}
	} else {
		report = pool.AvailabilityReport()
	}

	switch statusFlags.format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "table":
		printAvailabilityTable(report, pool.StrategyName())
		return nil
	default:
		return fmt.Errorf("unknown format %q (valid: table, json)", statusFlags.format)
	}
}

func printAvailabilityTable(report []routing.ModelAvailability, strategy string) {
	fmt.Printf("Strategy: %s\n\n", strategy)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tKEY\tTIER\tPERIOD\tUSED\tLIMIT\tAVAILABLE")
	for _, ma := range report {
		for _, pa := range ma.Providers {
			for _, period := range pa.Periods {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
					ma.Model, pa.KeyID, pa.Tier,
					period.Period, period.Used, period.Limit, period.Available)
			}
		}
	}
	w.Flush()
}
