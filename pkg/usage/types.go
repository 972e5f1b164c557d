package usage

import (
	"context"
	"time"
)

// Request outcomes recorded per routed request.
const (
	// OutcomeSuccess: a provider returned completion text.
	OutcomeSuccess = "success"
	// OutcomeRateLimited: the final attempt was rejected by a rate limit.
	OutcomeRateLimited = "rate_limited"
	// OutcomeNoProviders: no provider could serve the request.
	OutcomeNoProviders = "no_providers"
	// OutcomeUpstreamError: a non-rate-limit upstream failure.
	OutcomeUpstreamError = "upstream_error"
)

// Record is one routed request's outcome.
type Record struct {
	// ID is a unique record identifier.
	ID string

	// RequestID correlates the record with pool request logs.
	RequestID string

	// Time is when the request completed.
	Time time.Time

	// KeyID is the credential that served (or last attempted) the request.
	// Empty when no provider was selected at all.
	KeyID string

	// Model is the requested model.
	Model string

	// Outcome is one of the Outcome* constants.
	Outcome string

	// FailedOver is true when the request was retried on a second provider.
	FailedOver bool

	// LatencyMS is the total execution latency in milliseconds.
	LatencyMS int64
}

// Store persists usage records.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Record appends one usage record.
	Record(ctx context.Context, rec *Record) error

	// List returns records at or after since, newest first, up to limit
	// (0 = no limit).
	List(ctx context.Context, since time.Time, limit int) ([]*Record, error)

	// Prune deletes records older than the cutoff and reports how many
	// were removed.
	Prune(ctx context.Context, olderThan time.Time) (int, error)

	// Close releases backend resources.
	Close() error
}
