package config

import "time"

// Default values for configuration fields.
const (
	// Routing defaults
	DefaultStrategy = "performance"

	// Upstream defaults
	DefaultUpstreamBaseURL = "https://api.cerebras.ai"
	DefaultUpstreamTimeout = 60 * time.Second

	// Usage defaults
	DefaultUsageBackend       = "memory"
	DefaultUsageSQLitePath    = "data/usage.db"
	DefaultUsageRetentionDays = 30
	DefaultUsagePruneSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "json"
	DefaultMetricsEnabled      = false
	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultMetricsPath         = "/metrics"

	// Tier defaults
	DefaultCredentialTier = "free"
)

// ApplyDefaults fills in default values for unset fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Strategy == "" {
		cfg.Strategy = DefaultStrategy
	}

	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = DefaultUpstreamBaseURL
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = DefaultUpstreamTimeout
	}

	if cfg.Usage.Backend == "" {
		cfg.Usage.Backend = DefaultUsageBackend
	}
	if cfg.Usage.SQLitePath == "" {
		cfg.Usage.SQLitePath = DefaultUsageSQLitePath
	}
	if cfg.Usage.RetentionDays == 0 {
		cfg.Usage.RetentionDays = DefaultUsageRetentionDays
	}
	if cfg.Usage.PruneSchedule == "" {
		cfg.Usage.PruneSchedule = DefaultUsagePruneSchedule
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}

	for i := range cfg.Credentials {
		if cfg.Credentials[i].Tier == "" {
			cfg.Credentials[i].Tier = DefaultCredentialTier
		}
	}
}
