package providers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coderashed/cerebras-code-mcp/pkg/quota"
)

// Provider decorates one credential/executor pair with per-model admission
// control. Every call checks the model's quota tracker before delegating to
// the raw executor, and records the request on success.
//
// Providers are created once at startup per configured credential and live
// for the process lifetime. Each provider owns its tracker cache; there is
// no shared registry across instances.
//
// # Concurrency
//
// Tracker state is mutex-guarded, but the admission check and the
// post-success record are deliberately not one atomic step: two in-flight
// calls on the same (provider, model) pair can both be admitted when only
// one slot remains. The transient over-limit burst is bounded by the number
// of concurrent calls and is accepted for a single-process admission
// controller.
type Provider struct {
	keyID    string
	tier     string
	executor Executor
	quotas   quota.Table

	mu       sync.Mutex
	trackers map[string]*quota.Tracker

	logger *slog.Logger
	clock  func() time.Time
}

// ProviderOption customizes a Provider.
type ProviderOption func(*Provider)

// WithLogger sets the provider's logger.
func WithLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = logger.With("component", "provider", "key", p.keyID)
	}
}

// WithClock sets the time source for newly created trackers.
// Used by tests to control window expiry.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.clock = now
	}
}

// NewProvider creates an admission-controlled provider for one credential.
//
// The quota table is shared, read-only configuration; the tier selects which
// row applies to this credential.
func NewProvider(keyID, tier string, executor Executor, quotas quota.Table, opts ...ProviderOption) *Provider {
	p := &Provider{
		keyID:    keyID,
		tier:     tier,
		executor: executor,
		quotas:   quotas,
		trackers: make(map[string]*quota.Tracker),
		logger:   slog.Default().With("component", "provider", "key", keyID),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// KeyID returns the credential identifier.
func (p *Provider) KeyID() string {
	return p.keyID
}

// Tier returns the credential's tier label.
func (p *Provider) Tier() string {
	return p.tier
}

// Models returns the model names this provider has quota configuration for.
func (p *Provider) Models() []string {
	return p.quotas.ModelsForTier(p.tier)
}

// Tracker returns the rate tracker for a model, creating and caching it on
// first use. Fails with NoConfigError when no quota is configured for
// (model, tier).
func (p *Provider) Tracker(model string) (*quota.Tracker, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if tracker, ok := p.trackers[model]; ok {
		return tracker, nil
	}

	mq, ok := p.quotas.Lookup(model, p.tier)
	if !ok {
		return nil, &NoConfigError{Model: model, Tier: p.tier}
	}

	tracker, err := quota.NewTrackerWithClock(mq.Limits, p.clock)
	if err != nil {
		return nil, err
	}

	p.trackers[model] = tracker
	return tracker, nil
}

// CanHandle reports whether this provider can currently serve a request for
// the model. Missing quota configuration is "cannot handle", not an error,
// so callers can filter candidates cleanly.
func (p *Provider) CanHandle(model string) bool {
	tracker, err := p.Tracker(model)
	if err != nil {
		return false
	}
	return tracker.CanHandle()
}

// Execute runs one admission-controlled completion call.
//
// The admission check is re-done here even if the caller already filtered by
// CanHandle. On success the request is recorded against every quota period.
// On an upstream rate-limit rejection the minute period is force-filled so
// local admission reflects the upstream's authoritative state, then the
// original error is returned.
func (p *Provider) Execute(ctx context.Context, model string, req *Request) (string, error) {
	tracker, err := p.Tracker(model)
	if err != nil {
		return "", err
	}

	if !tracker.CanHandle() {
		return "", &RateLimitExceededError{KeyID: p.keyID, Period: tracker.Bottleneck()}
	}

	text, err := p.executor.Complete(ctx, model, req)
	if err != nil {
		if IsRateLimitSignal(err) {
			// An upstream 429 is authoritative: fill the minute period so
			// local admission denies until it rolls over. Longer periods
			// are left untouched; a repeat 429 simply re-fills the minute.
			tracker.ForceFill(quota.PeriodMinute)
			p.logger.Warn("upstream rate limit, tracker force-filled",
				"model", model,
				"error", err,
			)
		}
		return "", err
	}

	tracker.RecordRequest()
	return text, nil
}

// Utilization returns a scalar in [0,1] summarizing quota usage for the
// model across all periods. Models without configuration report full
// utilization so load-aware strategies rank them last.
func (p *Provider) Utilization(model string) float64 {
	tracker, err := p.Tracker(model)
	if err != nil {
		return 1
	}
	return tracker.Utilization()
}

// Availability returns the per-period quota snapshot for a model.
func (p *Provider) Availability(model string) ([]quota.PeriodAvailability, error) {
	tracker, err := p.Tracker(model)
	if err != nil {
		return nil, err
	}
	return tracker.Availability(), nil
}
