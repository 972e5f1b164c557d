package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/coderashed/cerebras-code-mcp/pkg/config"
	"github.com/coderashed/cerebras-code-mcp/pkg/providers"
	"github.com/coderashed/cerebras-code-mcp/pkg/routing"
)

var completeFlags struct {
	model       string
	system      string
	maxTokens   int
	temperature float64
	timeout     time.Duration
}

var completeCmd = &cobra.Command{
	Use:   "complete [prompt]",
	Short: "Run one completion through the router",
	Long: `Send a single completion request through the routing pool.

The active strategy picks a credential; if that credential is rate limited
the request fails over once to an alternative.

Examples:
  # Complete a prompt
  cerebras-router complete --model qwen-3-coder-480b "write a quicksort in Go"

  # With a system prompt
  cerebras-router complete -m qwen-3-coder-480b -s "answer tersely" "what is a mutex"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runComplete,
}

func init() {
	rootCmd.AddCommand(completeCmd)

	completeCmd.Flags().StringVarP(&completeFlags.model, "model", "m", "", "model name (required)")
	completeCmd.Flags().StringVarP(&completeFlags.system, "system", "s", "", "system prompt")
	completeCmd.Flags().IntVar(&completeFlags.maxTokens, "max-tokens", 0, "completion token cap (0 = provider default)")
	completeCmd.Flags().Float64Var(&completeFlags.temperature, "temperature", 0, "sampling temperature (0 = provider default)")
	completeCmd.Flags().DurationVar(&completeFlags.timeout, "timeout", 2*time.Minute, "overall request timeout")
	completeCmd.MarkFlagRequired("model")
}

func runComplete(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnv(cfgFile)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}

	store, err := buildUsageStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	pool, err := buildPool(cfg, logger, routing.WithUsageStore(store))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), completeFlags.timeout)
	defer cancel()

	text, err := pool.Execute(ctx, completeFlags.model, &providers.Request{
		Prompt:      strings.Join(args, " "),
		System:      completeFlags.system,
		MaxTokens:   completeFlags.maxTokens,
		Temperature: completeFlags.temperature,
	})
	if err != nil {
		return err
	}

	fmt.Println(text)
	return nil
}
