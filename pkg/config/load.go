package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file, applies defaults and validates
// the result. Environment variables are not consulted; use LoadWithEnv for
// that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	expandCredentialKeys(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnv loads configuration from a YAML file and applies environment
// variable overrides. Variables follow the CEREBRAS_SECTION_FIELD convention
// and always take precedence over the file.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("CEREBRAS_STRATEGY"); val != "" {
		cfg.Strategy = val
	}

	if val := os.Getenv("CEREBRAS_UPSTREAM_BASE_URL"); val != "" {
		cfg.Upstream.BaseURL = val
	}
	if val := os.Getenv("CEREBRAS_UPSTREAM_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Upstream.Timeout = d
		}
	}

	if val := os.Getenv("CEREBRAS_USAGE_BACKEND"); val != "" {
		cfg.Usage.Backend = val
	}
	if val := os.Getenv("CEREBRAS_USAGE_SQLITE_PATH"); val != "" {
		cfg.Usage.SQLitePath = val
	}

	if val := os.Getenv("CEREBRAS_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("CEREBRAS_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("CEREBRAS_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
}

// expandCredentialKeys resolves ${VAR} references in credential API keys so
// keys can be supplied from the environment instead of the file.
func expandCredentialKeys(cfg *Config) {
	for i := range cfg.Credentials {
		cfg.Credentials[i].APIKey = os.ExpandEnv(cfg.Credentials[i].APIKey)
	}
}
