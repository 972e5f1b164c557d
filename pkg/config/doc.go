// Package config loads and validates the router's YAML configuration.
//
// Loading follows a fixed sequence: parse the YAML file, apply defaults,
// apply environment variable overrides, then validate the final result.
// Environment variables use the CEREBRAS_SECTION_FIELD convention and always
// take precedence over the file. Credential API keys support ${VAR}
// expansion so keys never have to live in the file itself.
//
// An optional file watcher reloads the configuration on change, debounced so
// editor write bursts trigger a single reload. Only the strategy selection
// is hot-swappable; credential and quota changes require a restart.
package config
