package routing

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coderashed/cerebras-code-mcp/pkg/providers"
	"github.com/coderashed/cerebras-code-mcp/pkg/quota"
	"github.com/coderashed/cerebras-code-mcp/pkg/telemetry/metrics"
	"github.com/coderashed/cerebras-code-mcp/pkg/usage"
)

// Pool is the caller-facing entry point: it owns the provider set and the
// active strategy and routes each request through them.
//
// Per request the flow is select, execute, and on a rate-limit failure one
// failover hop: the failed provider is excluded, the strategy re-selects,
// and the fallback is tried exactly once. Non-rate-limit errors propagate
// without failover.
type Pool struct {
	mu        sync.RWMutex
	providers []*providers.Provider
	strategy  Strategy

	logger  *slog.Logger
	metrics *metrics.RouterMetrics
	usage   usage.Store
	clock   func() time.Time
}

// PoolOption customizes a Pool.
type PoolOption func(*Pool)

// WithLogger sets the pool's logger.
func WithLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = logger.With("component", "pool")
	}
}

// WithMetrics attaches router metrics to the pool.
func WithMetrics(rm *metrics.RouterMetrics) PoolOption {
	return func(p *Pool) {
		p.metrics = rm
	}
}

// WithUsageStore attaches a usage store; every routed request is recorded.
func WithUsageStore(store usage.Store) PoolOption {
	return func(p *Pool) {
		p.usage = store
	}
}

// WithPoolClock sets the pool's time source. Used by tests.
func WithPoolClock(now func() time.Time) PoolOption {
	return func(p *Pool) {
		p.clock = now
	}
}

// NewPool creates a pool over the given providers with the given strategy.
func NewPool(provs []*providers.Provider, strategy Strategy, opts ...PoolOption) (*Pool, error) {
	if len(provs) == 0 {
		return nil, errors.New("pool requires at least one provider")
	}
	if strategy == nil {
		return nil, errors.New("pool requires a strategy")
	}

	p := &Pool{
		providers: append([]*providers.Provider(nil), provs...),
		strategy:  strategy,
		logger:    slog.Default().With("component", "pool"),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Execute routes one completion request.
//
// Fails with NoProvidersAvailableError when no provider can serve the model,
// or with the last provider error after the single failover hop is spent.
func (p *Pool) Execute(ctx context.Context, model string, req *providers.Request) (string, error) {
	requestID := uuid.NewString()
	start := p.clock()

	candidates := p.Providers()
	strategy := p.currentStrategy()

	first, err := strategy.Select(model, candidates)
	if err != nil {
		p.finish(requestID, start, "", model, usage.OutcomeNoProviders, false)
		return "", err
	}

	text, err := p.executeOn(ctx, first, model, req)
	if err == nil {
		p.finish(requestID, start, first.KeyID(), model, usage.OutcomeSuccess, false)
		return text, nil
	}

	if !providers.IsRateLimitSignal(err) {
		p.finish(requestID, start, first.KeyID(), model, usage.OutcomeUpstreamError, false)
		return "", err
	}

	p.logger.Info("provider rate limited, attempting failover",
		"request_id", requestID,
		"model", model,
		"failed_key", first.KeyID(),
	)

	remaining := exclude(candidates, first)
	fallback, serr := strategy.Select(model, remaining)
	if serr != nil {
		p.finish(requestID, start, first.KeyID(), model, usage.OutcomeNoProviders, false)
		return "", serr
	}

	if p.metrics != nil {
		p.metrics.RecordFailover(model)
	}

	text, err = p.executeOn(ctx, fallback, model, req)
	if err != nil {
		outcome := usage.OutcomeUpstreamError
		if providers.IsRateLimitSignal(err) {
			outcome = usage.OutcomeRateLimited
		}
		p.finish(requestID, start, fallback.KeyID(), model, outcome, true)
		return "", err
	}

	p.finish(requestID, start, fallback.KeyID(), model, usage.OutcomeSuccess, true)
	return text, nil
}

// executeOn runs one provider call and updates per-call metrics.
func (p *Pool) executeOn(ctx context.Context, prov *providers.Provider, model string, req *providers.Request) (string, error) {
	start := p.clock()
	text, err := prov.Execute(ctx, model, req)

	if p.metrics != nil {
		p.metrics.ObserveUpstreamLatency(prov.KeyID(), model, p.clock().Sub(start).Seconds())
		p.metrics.SetUtilization(prov.KeyID(), model, prov.Utilization(model))

		var denied *providers.RateLimitExceededError
		if errors.As(err, &denied) {
			p.metrics.RecordDenial(denied.KeyID, string(denied.Period))
		}
	}

	return text, err
}

// finish records the request outcome in metrics and the usage store.
func (p *Pool) finish(requestID string, start time.Time, keyID, model, outcome string, failedOver bool) {
	if p.metrics != nil {
		p.metrics.RecordRequest(keyID, model, outcome)
	}
	if p.usage == nil {
		return
	}

	now := p.clock()
	rec := &usage.Record{
		RequestID:  requestID,
		Time:       now,
		KeyID:      keyID,
		Model:      model,
		Outcome:    outcome,
		FailedOver: failedOver,
		LatencyMS:  now.Sub(start).Milliseconds(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.usage.Record(ctx, rec); err != nil {
		p.logger.Warn("failed to record usage", "request_id", requestID, "error", err)
	}
}

// SelectProvider exposes the strategy's choice without executing.
func (p *Pool) SelectProvider(model string) (*providers.Provider, error) {
	return p.currentStrategy().Select(model, p.Providers())
}

// SetStrategy swaps the active strategy at runtime.
func (p *Pool) SetStrategy(strategy Strategy) {
	if strategy == nil {
		return
	}
	strategy.Reset()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.strategy = strategy
	p.logger.Info("routing strategy changed", "strategy", strategy.Name())
}

// StrategyName returns the active strategy's name.
func (p *Pool) StrategyName() string {
	return p.currentStrategy().Name()
}

// Providers returns a snapshot of the provider set.
func (p *Pool) Providers() []*providers.Provider {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*providers.Provider(nil), p.providers...)
}

func (p *Pool) currentStrategy() Strategy {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.strategy
}

// ProviderAvailability is one provider's quota snapshot for a model.
type ProviderAvailability struct {
	KeyID       string                     `json:"key_id"`
	Tier        string                     `json:"tier"`
	CanHandle   bool                       `json:"can_handle"`
	Utilization float64                    `json:"utilization"`
	Periods     []quota.PeriodAvailability `json:"periods"`
}

// ModelAvailability is the per-provider availability for one model.
type ModelAvailability struct {
	Model     string                 `json:"model"`
	Providers []ProviderAvailability `json:"providers"`
}

// Availability reports quota state across all providers for one model.
// Providers without quota configuration for the model are skipped.
func (p *Pool) Availability(model string) ModelAvailability {
	report := ModelAvailability{Model: model}

	for _, prov := range p.Providers() {
		periods, err := prov.Availability(model)
		if err != nil {
			continue
		}
		report.Providers = append(report.Providers, ProviderAvailability{
			KeyID:       prov.KeyID(),
			Tier:        prov.Tier(),
			CanHandle:   prov.CanHandle(model),
			Utilization: prov.Utilization(model),
			Periods:     periods,
		})
	}

	return report
}

// AvailabilityReport reports quota state for every model any provider is
// configured for, sorted by model name.
func (p *Pool) AvailabilityReport() []ModelAvailability {
	seen := make(map[string]bool)
	var models []string
	for _, prov := range p.Providers() {
		for _, model := range prov.Models() {
			if !seen[model] {
				seen[model] = true
				models = append(models, model)
			}
		}
	}
	sort.Strings(models)

	report := make([]ModelAvailability, 0, len(models))
	for _, model := range models {
		report = append(report, p.Availability(model))
	}
	return report
}

// exclude returns candidates without the given provider.
func exclude(candidates []*providers.Provider, failed *providers.Provider) []*providers.Provider {
	out := make([]*providers.Provider, 0, len(candidates))
	for _, p := range candidates {
		if p != failed {
			out = append(out, p)
		}
	}
	return out
}
