package routing

import (
	"strings"

	"github.com/coderashed/cerebras-code-mcp/pkg/providers"
)

// Recognized strategy names for NewStrategy.
const (
	StrategyCost        = "cost"
	StrategyPerformance = "performance"
	StrategyBalanced    = "balanced"
	StrategyRoundRobin  = "roundrobin"

	// DefaultStrategy is used when no strategy is configured.
	DefaultStrategy = StrategyPerformance
)

// Strategy picks one provider from a candidate set for a model.
//
// Select considers only candidates whose CanHandle(model) is true and fails
// with NoProvidersAvailableError when none qualify. Implementations must be
// safe for concurrent use; any cross-call state (such as a round-robin
// cursor) is the strategy's own responsibility.
type Strategy interface {
	// Select returns the provider that should serve the next request for
	// the model.
	Select(model string, candidates []*providers.Provider) (*providers.Provider, error)

	// Name returns the strategy's configuration name.
	Name() string

	// Reset clears any cross-call state, such as a rotation cursor.
	Reset()
}

// NewStrategy creates a strategy by configuration name. The empty string
// selects DefaultStrategy.
func NewStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return NewStrategy(DefaultStrategy)
	case StrategyCost:
		return &CostOptimizedStrategy{}, nil
	case StrategyPerformance:
		return &PerformanceOptimizedStrategy{}, nil
	case StrategyBalanced:
		return &LoadBalancedStrategy{}, nil
	case StrategyRoundRobin:
		return &RoundRobinStrategy{}, nil
	default:
		return nil, &UnknownStrategyError{Name: name}
	}
}

// available filters candidates down to those that can currently serve the
// model. Providers without quota configuration for the model are dropped
// silently here, the same as exhausted ones.
func available(model string, candidates []*providers.Provider) []*providers.Provider {
	var out []*providers.Provider
	for _, p := range candidates {
		if p.CanHandle(model) {
			out = append(out, p)
		}
	}
	return out
}
