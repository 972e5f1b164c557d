package main

import (
	"fmt"
	"log/slog"

	"github.com/coderashed/cerebras-code-mcp/pkg/config"
	"github.com/coderashed/cerebras-code-mcp/pkg/providers"
	"github.com/coderashed/cerebras-code-mcp/pkg/routing"
	"github.com/coderashed/cerebras-code-mcp/pkg/telemetry/logging"
	"github.com/coderashed/cerebras-code-mcp/pkg/usage"
)

// buildLogger creates the process logger from configuration, honoring the
// --verbose flag.
func buildLogger(cfg *config.Config) (*slog.Logger, error) {
	level := cfg.Telemetry.Logging.Level
	if verbose {
		level = "debug"
	}
	return logging.New(logging.Config{
		Level:  level,
		Format: cfg.Telemetry.Logging.Format,
	})
}

// buildUsageStore creates the configured usage store backend.
func buildUsageStore(cfg *config.Config) (usage.Store, error) {
	switch cfg.Usage.Backend {
	case "sqlite":
		return usage.NewSQLiteStore(usage.SQLiteConfig{Path: cfg.Usage.SQLitePath})
	case "memory":
		return usage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown usage backend %q", cfg.Usage.Backend)
	}
}

// buildPool assembles the provider pool from configuration: one
// admission-controlled provider per credential, all sharing the quota table,
// routed by the configured strategy.
func buildPool(cfg *config.Config, logger *slog.Logger, opts ...routing.PoolOption) (*routing.Pool, error) {
	strategy, err := routing.NewStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	table := cfg.QuotaTable()

	provs := make([]*providers.Provider, 0, len(cfg.Credentials))
	for _, cred := range cfg.Credentials {
		executor := providers.NewHTTPExecutor(providers.HTTPExecutorConfig{
			KeyID:   cred.Name,
			APIKey:  cred.APIKey,
			BaseURL: cfg.Upstream.BaseURL,
			Timeout: cfg.Upstream.Timeout,
		})
		provs = append(provs, providers.NewProvider(cred.Name, cred.Tier, executor, table,
			providers.WithLogger(logger)))
	}

	opts = append([]routing.PoolOption{routing.WithLogger(logger)}, opts...)
	return routing.NewPool(provs, strategy, opts...)
}
