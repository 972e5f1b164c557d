package providers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coderashed/cerebras-code-mcp/pkg/quota"
)

// Common provider errors that can be checked with errors.Is().
var (
	// ErrNoConfigForModel is returned when a credential's tier has no quota
	// entry for the requested model.
	ErrNoConfigForModel = errors.New("no quota configuration for model")

	// ErrRateLimitExceeded is returned when local admission control denies
	// a request.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrUpstreamRateLimited is returned when the upstream service rejects
	// a request as over-limit (HTTP 429 semantics).
	ErrUpstreamRateLimited = errors.New("upstream rate limited")
)

// NoConfigError is returned when no ModelQuota is configured for a
// (model, tier) pair. Strategies filter this condition silently; it only
// surfaces when every provider lacks configuration.
type NoConfigError struct {
	// Model is the requested model.
	Model string

	// Tier is the credential's tier.
	Tier string
}

// Error implements the error interface.
func (e *NoConfigError) Error() string {
	return fmt.Sprintf("no quota configuration for model %q at tier %q", e.Model, e.Tier)
}

// Is implements error matching for errors.Is().
func (e *NoConfigError) Is(target error) bool {
	return target == ErrNoConfigForModel
}

// RateLimitExceededError is returned when local admission control denies a
// request. It names the credential and the bottleneck period so callers can
// tell which quota bit.
type RateLimitExceededError struct {
	// KeyID is the credential that denied the request.
	KeyID string

	// Period is the exhausted quota period.
	Period quota.Period
}

// Error implements the error interface.
func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded for key %q (%s limit)", e.KeyID, e.Period)
}

// Is implements error matching for errors.Is().
func (e *RateLimitExceededError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}

// UpstreamRateLimitError is returned when the upstream service rejects a
// request as over-limit. Includes the retry-after duration if the provider
// supplied one.
type UpstreamRateLimitError struct {
	// KeyID is the credential the upstream rejected.
	KeyID string

	// RetryAfter is the wait the upstream suggested (0 if absent).
	RetryAfter time.Duration

	// Message is the upstream error message.
	Message string
}

// Error implements the error interface.
func (e *UpstreamRateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("upstream rate limited key %q (retry after %s): %s",
			e.KeyID, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("upstream rate limited key %q: %s", e.KeyID, e.Message)
}

// Is implements error matching for errors.Is().
func (e *UpstreamRateLimitError) Is(target error) bool {
	return target == ErrUpstreamRateLimited
}

// AuthError is returned when the upstream rejects the credential itself
// (HTTP 401 or 403). Never treated as a rate-limit condition.
type AuthError struct {
	// KeyID is the rejected credential.
	KeyID string

	// Message is the upstream error message.
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for key %q: %s", e.KeyID, e.Message)
}

// ProviderError is a general upstream failure: network errors, server
// errors, malformed responses. Never treated as a rate-limit condition.
type ProviderError struct {
	// KeyID is the credential used for the failed call.
	KeyID string

	// StatusCode is the HTTP status code (0 if not applicable).
	StatusCode int

	// Message is the error message.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream error for key %q (status %d): %s", e.KeyID, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream error for key %q: %s", e.KeyID, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// IsRateLimitSignal reports whether an error indicates a rate-limit
// condition, locally or upstream.
//
// Typed errors are checked first. The textual fallback ("429", "rate limit")
// exists only for third-party executors that return opaque errors instead of
// this package's types; executors shipped with this module always return
// typed errors.
func IsRateLimitSignal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimitExceeded) || errors.Is(err, ErrUpstreamRateLimited) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit")
}
