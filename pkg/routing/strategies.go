package routing

import (
	"sort"
	"sync/atomic"

	"github.com/coderashed/cerebras-code-mcp/pkg/providers"
)

// TierFree is the free credential tier. Tier comparison in the cost and
// performance strategies keys off this value and TierPaid; any other tier
// label sorts after the preferred one.
const (
	TierFree = "free"
	TierPaid = "paid"
)

// CostOptimizedStrategy prefers free-tier credentials so paid quota is spent
// only when the free tier is exhausted. Ties are broken by ascending
// utilization.
type CostOptimizedStrategy struct{}

// Select implements Strategy.
func (s *CostOptimizedStrategy) Select(model string, candidates []*providers.Provider) (*providers.Provider, error) {
	return selectSorted(model, candidates, func(p *providers.Provider) int {
		if p.Tier() == TierFree {
			return 0
		}
		return 1
	})
}

// Name implements Strategy.
func (s *CostOptimizedStrategy) Name() string { return StrategyCost }

// Reset implements Strategy. Stateless; nothing to clear.
func (s *CostOptimizedStrategy) Reset() {}

// PerformanceOptimizedStrategy prefers paid-tier credentials, which carry
// larger context windows and higher quota ceilings. Ties are broken by
// ascending utilization.
type PerformanceOptimizedStrategy struct{}

// Select implements Strategy.
func (s *PerformanceOptimizedStrategy) Select(model string, candidates []*providers.Provider) (*providers.Provider, error) {
	return selectSorted(model, candidates, func(p *providers.Provider) int {
		if p.Tier() == TierPaid {
			return 0
		}
		return 1
	})
}

// Name implements Strategy.
func (s *PerformanceOptimizedStrategy) Name() string { return StrategyPerformance }

// Reset implements Strategy. Stateless; nothing to clear.
func (s *PerformanceOptimizedStrategy) Reset() {}

// LoadBalancedStrategy picks the candidate with the lowest quota utilization
// so load spreads evenly across credentials.
type LoadBalancedStrategy struct{}

// Select implements Strategy.
func (s *LoadBalancedStrategy) Select(model string, candidates []*providers.Provider) (*providers.Provider, error) {
	return selectSorted(model, candidates, func(*providers.Provider) int { return 0 })
}

// Name implements Strategy.
func (s *LoadBalancedStrategy) Name() string { return StrategyBalanced }

// Reset implements Strategy. Stateless; nothing to clear.
func (s *LoadBalancedStrategy) Reset() {}

// RoundRobinStrategy cycles a cursor across the available candidates.
//
// The cursor advances once per Select and is taken modulo the current
// candidate count. The candidate set shrinks and grows as providers exhaust
// and recover, so the cursor's position within the full provider list shifts
// over time; distribution stays fair over the candidates that are actually
// available each call.
type RoundRobinStrategy struct {
	cursor atomic.Int64
}

// Select implements Strategy.
func (s *RoundRobinStrategy) Select(model string, candidates []*providers.Provider) (*providers.Provider, error) {
	avail := available(model, candidates)
	if len(avail) == 0 {
		return nil, &NoProvidersAvailableError{Model: model}
	}
	idx := int(s.cursor.Add(1) % int64(len(avail)))
	return avail[idx], nil
}

// Name implements Strategy.
func (s *RoundRobinStrategy) Name() string { return StrategyRoundRobin }

// Reset implements Strategy. Rewinds the cursor to its initial position.
func (s *RoundRobinStrategy) Reset() {
	s.cursor.Store(0)
}

// selectSorted filters candidates by availability, orders them by the tier
// rank and then by ascending utilization, and returns the first. The sort is
// stable so equally ranked providers keep their configured order.
func selectSorted(model string, candidates []*providers.Provider, tierRank func(*providers.Provider) int) (*providers.Provider, error) {
	avail := available(model, candidates)
	if len(avail) == 0 {
		return nil, &NoProvidersAvailableError{Model: model}
	}

	sort.SliceStable(avail, func(i, j int) bool {
		ri, rj := tierRank(avail[i]), tierRank(avail[j])
		if ri != rj {
			return ri < rj
		}
		return avail[i].Utilization(model) < avail[j].Utilization(model)
	})

	return avail[0], nil
}
