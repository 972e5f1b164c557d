package config

import (
	"time"

	"github.com/coderashed/cerebras-code-mcp/pkg/quota"
)

// Config is the root configuration for the router.
type Config struct {
	// Strategy selects the routing strategy: cost, performance, balanced
	// or roundrobin.
	Strategy string `yaml:"strategy"`

	// Credentials are the upstream API credentials the pool routes across.
	Credentials []CredentialConfig `yaml:"credentials"`

	// Models maps model name, then tier, to quota configuration.
	Models map[string]map[string]ModelQuotaConfig `yaml:"models"`

	// Upstream configures the completion API endpoint.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Usage configures usage recording and retention.
	Usage UsageConfig `yaml:"usage"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Watch enables config file watching for strategy hot-swap.
	Watch bool `yaml:"watch"`
}

// CredentialConfig is one upstream API credential.
type CredentialConfig struct {
	// Name identifies the credential in logs, metrics and reports.
	Name string `yaml:"name"`

	// APIKey is the upstream API key. Supports ${VAR} expansion from the
	// environment.
	APIKey string `yaml:"api_key"`

	// Tier is the credential's quota tier (e.g. "free", "paid").
	Tier string `yaml:"tier"`
}

// ModelQuotaConfig is the per (model, tier) quota entry.
type ModelQuotaConfig struct {
	// ContextWindow is the model's context size in tokens.
	ContextWindow int `yaml:"context_window"`

	// Limits holds the request limits per period.
	Limits LimitsConfig `yaml:"limits"`
}

// LimitsConfig groups limit kinds. Only request limits are enforced.
type LimitsConfig struct {
	Requests RequestLimitsConfig `yaml:"requests"`
}

// RequestLimitsConfig is the maximum request count per period.
// A zero or absent period is unlimited.
type RequestLimitsConfig struct {
	Minute int `yaml:"minute"`
	Hour   int `yaml:"hour"`
	Day    int `yaml:"day"`
}

// UpstreamConfig configures the completion API endpoint.
type UpstreamConfig struct {
	// BaseURL is the API base URL.
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-request timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// UsageConfig configures usage recording.
type UsageConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`

	// RetentionDays is how long usage records are kept.
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a standard cron expression for retention pruning.
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig configures logging and metrics.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is json or text.
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns the metrics HTTP listener on.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the metrics listener address.
	ListenAddress string `yaml:"listen_address"`

	// Path is the exposition path.
	Path string `yaml:"path"`
}

// QuotaTable converts the configured model table into the runtime quota
// table. Zero limits are dropped, leaving those periods unlimited.
func (c *Config) QuotaTable() quota.Table {
	table := make(quota.Table, len(c.Models))

	for model, tiers := range c.Models {
		table[model] = make(map[string]quota.ModelQuota, len(tiers))
		for tier, mq := range tiers {
			limits := make(quota.LimitSet)
			if mq.Limits.Requests.Minute > 0 {
				limits[quota.PeriodMinute] = mq.Limits.Requests.Minute
			}
			if mq.Limits.Requests.Hour > 0 {
				limits[quota.PeriodHour] = mq.Limits.Requests.Hour
			}
			if mq.Limits.Requests.Day > 0 {
				limits[quota.PeriodDay] = mq.Limits.Requests.Day
			}
			table[model][tier] = quota.ModelQuota{
				ContextWindow: mq.ContextWindow,
				Limits:        limits,
			}
		}
	}

	return table
}

// RetentionDuration returns the usage retention period.
func (c *Config) RetentionDuration() time.Duration {
	return time.Duration(c.Usage.RetentionDays) * 24 * time.Hour
}
