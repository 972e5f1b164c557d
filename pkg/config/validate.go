package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// validStrategies are the recognized routing strategy names.
var validStrategies = map[string]bool{
	"cost":        true,
	"performance": true,
	"balanced":    true,
	"roundrobin":  true,
}

// validUsageBackends are the recognized usage store backends.
var validUsageBackends = map[string]bool{
	"memory": true,
	"sqlite": true,
}

// Validate checks the configuration for errors. All problems found are
// reported together rather than one at a time.
func Validate(cfg *Config) error {
	var errs []string

	if !validStrategies[strings.ToLower(cfg.Strategy)] {
		errs = append(errs, fmt.Sprintf(
			"strategy: unknown strategy %q (valid: cost, performance, balanced, roundrobin)", cfg.Strategy))
	}

	if len(cfg.Credentials) == 0 {
		errs = append(errs, "credentials: at least one credential is required")
	}
	seen := make(map[string]bool)
	for i, cred := range cfg.Credentials {
		prefix := fmt.Sprintf("credentials[%d]", i)
		if cred.Name == "" {
			errs = append(errs, prefix+": name is required")
		} else if seen[cred.Name] {
			errs = append(errs, fmt.Sprintf("%s: duplicate credential name %q", prefix, cred.Name))
		} else {
			seen[cred.Name] = true
		}
		if cred.APIKey == "" {
			errs = append(errs, prefix+": api_key is required")
		}
		if cred.Tier == "" {
			errs = append(errs, prefix+": tier is required")
		}
	}

	if len(cfg.Models) == 0 {
		errs = append(errs, "models: at least one model quota entry is required")
	}
	for model, tiers := range cfg.Models {
		if len(tiers) == 0 {
			errs = append(errs, fmt.Sprintf("models[%s]: at least one tier entry is required", model))
		}
		for tier, mq := range tiers {
			prefix := fmt.Sprintf("models[%s][%s]", model, tier)
			r := mq.Limits.Requests
			if r.Minute < 0 || r.Hour < 0 || r.Day < 0 {
				errs = append(errs, prefix+": request limits must not be negative")
			}
			if r.Minute == 0 && r.Hour == 0 && r.Day == 0 {
				errs = append(errs, prefix+": at least one request limit is required")
			}
			if mq.ContextWindow < 0 {
				errs = append(errs, prefix+": context_window must not be negative")
			}
		}
	}

	if cfg.Upstream.BaseURL == "" {
		errs = append(errs, "upstream: base_url is required")
	}
	if cfg.Upstream.Timeout < 0 {
		errs = append(errs, "upstream: timeout must not be negative")
	}

	if !validUsageBackends[cfg.Usage.Backend] {
		errs = append(errs, fmt.Sprintf("usage: unknown backend %q (valid: memory, sqlite)", cfg.Usage.Backend))
	}
	if cfg.Usage.Backend == "sqlite" && cfg.Usage.SQLitePath == "" {
		errs = append(errs, "usage: sqlite_path is required for the sqlite backend")
	}
	if cfg.Usage.RetentionDays < 0 {
		errs = append(errs, "usage: retention_days must not be negative")
	}
	if cfg.Usage.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Usage.PruneSchedule); err != nil {
			errs = append(errs, fmt.Sprintf("usage: invalid prune_schedule %q: %v", cfg.Usage.PruneSchedule, err))
		}
	}

	switch strings.ToLower(cfg.Telemetry.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("telemetry: unknown log level %q", cfg.Telemetry.Logging.Level))
	}
	switch strings.ToLower(cfg.Telemetry.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("telemetry: unknown log format %q", cfg.Telemetry.Logging.Format))
	}
	if cfg.Telemetry.Metrics.Enabled && cfg.Telemetry.Metrics.ListenAddress == "" {
		errs = append(errs, "telemetry: metrics listen_address is required when metrics are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
