// Cerebras Router is an admission-control and routing layer in front of
// rate-limited Cerebras API credentials.
//
// It tracks per-credential request quotas across rolling and fixed time
// windows, selects a credential per request through a pluggable routing
// strategy, and fails over once when the selected credential hits a rate
// limit.
//
// Usage:
//
//	# Run one completion through the router
//	cerebras-router complete --model qwen-3-coder-480b "write a quicksort"
//
//	# Show quota availability across credentials
//	cerebras-router status
//
//	# Validate the configuration file
//	cerebras-router validate --config /path/to/config.yaml
//
//	# Show version information
//	cerebras-router version
package main

func main() {
	Execute()
}
