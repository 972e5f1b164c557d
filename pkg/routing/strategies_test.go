package routing

import (
	"context"
	"errors"
	"testing"

	mocks "github.com/coderashed/cerebras-code-mcp/internal/providers"
	"github.com/coderashed/cerebras-code-mcp/pkg/providers"
	"github.com/coderashed/cerebras-code-mcp/pkg/quota"
)

const testModel = "qwen-3-coder-480b"

func testTable(freeLimit, paidLimit int) quota.Table {
	return quota.Table{
		testModel: {
			TierFree: {ContextWindow: 65536, Limits: quota.LimitSet{quota.PeriodMinute: freeLimit}},
			TierPaid: {ContextWindow: 131072, Limits: quota.LimitSet{quota.PeriodMinute: paidLimit}},
		},
	}
}

func newTestProvider(keyID, tier string, table quota.Table, exec providers.Executor) *providers.Provider {
	return providers.NewProvider(keyID, tier, exec, table)
}

func recordN(t *testing.T, p *providers.Provider, n int) {
	t.Helper()
	tracker, err := p.Tracker(testModel)
	if err != nil {
		t.Fatalf("Tracker failed: %v", err)
	}
	for i := 0; i < n; i++ {
		tracker.RecordRequest()
	}
}

func TestNewStrategy(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"cost", StrategyCost},
		{"performance", StrategyPerformance},
		{"balanced", StrategyBalanced},
		{"roundrobin", StrategyRoundRobin},
		{"ROUNDROBIN", StrategyRoundRobin},
		{"", DefaultStrategy},
	}
	for _, tc := range cases {
		s, err := NewStrategy(tc.name)
		if err != nil {
			t.Errorf("NewStrategy(%q) failed: %v", tc.name, err)
			continue
		}
		if s.Name() != tc.want {
			t.Errorf("NewStrategy(%q).Name() = %q, want %q", tc.name, s.Name(), tc.want)
		}
	}

	_, err := NewStrategy("fastest")
	if err == nil {
		t.Fatal("Expected error for unknown strategy name")
	}
	if !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("Expected ErrUnknownStrategy, got %v", err)
	}
}

func TestCostOptimized_PrefersFreeTier(t *testing.T) {
	table := testTable(10, 10)
	paid := newTestProvider("key-paid", TierPaid, table, mocks.NewMockExecutor("ok"))
	free := newTestProvider("key-free", TierFree, table, mocks.NewMockExecutor("ok"))

	s := &CostOptimizedStrategy{}
	selected, err := s.Select(testModel, []*providers.Provider{paid, free})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if selected.KeyID() != "key-free" {
		t.Errorf("Expected free-tier provider, got %s", selected.KeyID())
	}
}

func TestCostOptimized_TieBrokenByUtilization(t *testing.T) {
	table := testTable(10, 10)
	busy := newTestProvider("key-busy", TierFree, table, mocks.NewMockExecutor("ok"))
	idle := newTestProvider("key-idle", TierFree, table, mocks.NewMockExecutor("ok"))
	recordN(t, busy, 5)

	s := &CostOptimizedStrategy{}
	selected, err := s.Select(testModel, []*providers.Provider{busy, idle})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if selected.KeyID() != "key-idle" {
		t.Errorf("Expected least-utilized provider, got %s", selected.KeyID())
	}
}

func TestPerformanceOptimized_PrefersPaidTier(t *testing.T) {
	table := testTable(10, 10)
	free := newTestProvider("key-free", TierFree, table, mocks.NewMockExecutor("ok"))
	paid := newTestProvider("key-paid", TierPaid, table, mocks.NewMockExecutor("ok"))

	s := &PerformanceOptimizedStrategy{}
	selected, err := s.Select(testModel, []*providers.Provider{free, paid})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if selected.KeyID() != "key-paid" {
		t.Errorf("Expected paid-tier provider, got %s", selected.KeyID())
	}
}

func TestPerformanceOptimized_FallsBackWhenPaidExhausted(t *testing.T) {
	table := testTable(10, 1)
	free := newTestProvider("key-free", TierFree, table, mocks.NewMockExecutor("ok"))
	paid := newTestProvider("key-paid", TierPaid, table, mocks.NewMockExecutor("ok"))
	recordN(t, paid, 1)

	s := &PerformanceOptimizedStrategy{}
	selected, err := s.Select(testModel, []*providers.Provider{free, paid})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if selected.KeyID() != "key-free" {
		t.Errorf("Expected free provider once paid is exhausted, got %s", selected.KeyID())
	}
}

func TestLoadBalanced_PicksLowestUtilization(t *testing.T) {
	table := testTable(10, 10)
	a := newTestProvider("key-a", TierFree, table, mocks.NewMockExecutor("ok"))
	b := newTestProvider("key-b", TierFree, table, mocks.NewMockExecutor("ok"))
	c := newTestProvider("key-c", TierFree, table, mocks.NewMockExecutor("ok"))
	recordN(t, a, 6)
	recordN(t, b, 2)
	recordN(t, c, 4)

	s := &LoadBalancedStrategy{}
	selected, err := s.Select(testModel, []*providers.Provider{a, b, c})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if selected.KeyID() != "key-b" {
		t.Errorf("Expected least-utilized provider key-b, got %s", selected.KeyID())
	}
}

func TestSelect_NoCandidates(t *testing.T) {
	table := testTable(1, 1)
	p := newTestProvider("key-1", TierFree, table, mocks.NewMockExecutor("ok"))
	recordN(t, p, 1)

	for _, s := range []Strategy{
		&CostOptimizedStrategy{},
		&PerformanceOptimizedStrategy{},
		&LoadBalancedStrategy{},
		&RoundRobinStrategy{},
	} {
		_, err := s.Select(testModel, []*providers.Provider{p})
		if err == nil {
			t.Errorf("%s: expected error with no available candidates", s.Name())
			continue
		}
		if !errors.Is(err, ErrNoProvidersAvailable) {
			t.Errorf("%s: expected ErrNoProvidersAvailable, got %v", s.Name(), err)
		}
		var npe *NoProvidersAvailableError
		if !errors.As(err, &npe) || npe.Model != testModel {
			t.Errorf("%s: expected error to name the model, got %v", s.Name(), err)
		}
	}
}

func TestRoundRobin_CyclesCandidates(t *testing.T) {
	table := testTable(100, 100)
	provs := []*providers.Provider{
		newTestProvider("key-0", TierFree, table, mocks.NewMockExecutor("ok")),
		newTestProvider("key-1", TierFree, table, mocks.NewMockExecutor("ok")),
		newTestProvider("key-2", TierFree, table, mocks.NewMockExecutor("ok")),
	}

	s := &RoundRobinStrategy{}
	want := []string{"key-1", "key-2", "key-0", "key-1", "key-2", "key-0"}
	for i, expected := range want {
		selected, err := s.Select(testModel, provs)
		if err != nil {
			t.Fatalf("Select %d failed: %v", i, err)
		}
		if selected.KeyID() != expected {
			t.Errorf("Call %d: expected %s, got %s", i, expected, selected.KeyID())
		}
	}
}

func TestRoundRobin_Reset(t *testing.T) {
	table := testTable(100, 100)
	provs := []*providers.Provider{
		newTestProvider("key-0", TierFree, table, mocks.NewMockExecutor("ok")),
		newTestProvider("key-1", TierFree, table, mocks.NewMockExecutor("ok")),
		newTestProvider("key-2", TierFree, table, mocks.NewMockExecutor("ok")),
	}

	s := &RoundRobinStrategy{}
	first, err := s.Select(testModel, provs)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	s.Reset()
	again, err := s.Select(testModel, provs)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if again.KeyID() != first.KeyID() {
		t.Errorf("Expected cursor rewind to repeat %s, got %s", first.KeyID(), again.KeyID())
	}
}

func TestRoundRobin_SkipsExhaustedProviders(t *testing.T) {
	table := testTable(1, 100)
	exhausted := newTestProvider("key-0", TierFree, table, mocks.NewMockExecutor("ok"))
	alive1 := newTestProvider("key-1", TierFree, table, mocks.NewMockExecutor("ok"))
	alive2 := newTestProvider("key-2", TierFree, table, mocks.NewMockExecutor("ok"))
	recordN(t, exhausted, 1)

	s := &RoundRobinStrategy{}
	seen := make(map[string]int)
	for i := 0; i < 4; i++ {
		selected, err := s.Select(testModel, []*providers.Provider{exhausted, alive1, alive2})
		if err != nil {
			t.Fatalf("Select %d failed: %v", i, err)
		}
		seen[selected.KeyID()]++
	}

	if seen["key-0"] != 0 {
		t.Errorf("Exhausted provider was selected %d times", seen["key-0"])
	}
	if seen["key-1"] != 2 || seen["key-2"] != 2 {
		t.Errorf("Expected even rotation over available providers, got %v", seen)
	}
}

func TestStrategies_IgnoreUnconfiguredProviders(t *testing.T) {
	table := quota.Table{
		testModel: {
			TierFree: {Limits: quota.LimitSet{quota.PeriodMinute: 10}},
		},
	}
	configured := newTestProvider("key-free", TierFree, table, mocks.NewMockExecutor("ok"))
	unconfigured := newTestProvider("key-paid", TierPaid, table, mocks.NewMockExecutor("ok"))

	s := &PerformanceOptimizedStrategy{}
	selected, err := s.Select(testModel, []*providers.Provider{unconfigured, configured})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if selected.KeyID() != "key-free" {
		t.Errorf("Expected the configured provider, got %s", selected.KeyID())
	}
}

// Execute through a provider so utilization reflects a real call path.
func TestLoadBalanced_AfterExecutions(t *testing.T) {
	table := testTable(10, 10)
	a := newTestProvider("key-a", TierFree, table, mocks.NewMockExecutor("ok"))
	b := newTestProvider("key-b", TierFree, table, mocks.NewMockExecutor("ok"))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := a.Execute(ctx, testModel, &providers.Request{Prompt: "p"}); err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
	}

	s := &LoadBalancedStrategy{}
	selected, err := s.Select(testModel, []*providers.Provider{a, b})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if selected.KeyID() != "key-b" {
		t.Errorf("Expected idle provider, got %s", selected.KeyID())
	}
}
