package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	mocks "github.com/coderashed/cerebras-code-mcp/internal/providers"
	"github.com/coderashed/cerebras-code-mcp/pkg/providers"
	"github.com/coderashed/cerebras-code-mcp/pkg/usage"
)

func TestNewPool_Validation(t *testing.T) {
	table := testTable(1, 1)
	p := newTestProvider("key-1", TierFree, table, mocks.NewMockExecutor("ok"))

	if _, err := NewPool(nil, &CostOptimizedStrategy{}); err == nil {
		t.Error("Expected error for empty provider set")
	}
	if _, err := NewPool([]*providers.Provider{p}, nil); err == nil {
		t.Error("Expected error for nil strategy")
	}
}

// Cost-optimized routing spills to the paid credential once the free one is
// exhausted: with free at 2/min and paid at 5/min, three sequential calls go
// free, free, paid.
func TestPool_CostOptimizedSpillover(t *testing.T) {
	table := testTable(2, 5)
	freeExec := mocks.NewMockExecutor("from-free")
	paidExec := mocks.NewMockExecutor("from-paid")
	free := newTestProvider("key-free", TierFree, table, freeExec)
	paid := newTestProvider("key-paid", TierPaid, table, paidExec)

	pool, err := NewPool([]*providers.Provider{free, paid}, &CostOptimizedStrategy{})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	ctx := context.Background()
	want := []string{"from-free", "from-free", "from-paid"}
	for i, expected := range want {
		text, err := pool.Execute(ctx, testModel, &providers.Request{Prompt: "p"})
		if err != nil {
			t.Fatalf("Call %d failed: %v", i+1, err)
		}
		if text != expected {
			t.Errorf("Call %d: expected %q, got %q", i+1, expected, text)
		}
	}

	if freeExec.CallCount() != 2 {
		t.Errorf("Expected 2 calls on free executor, got %d", freeExec.CallCount())
	}
	if paidExec.CallCount() != 1 {
		t.Errorf("Expected 1 call on paid executor, got %d", paidExec.CallCount())
	}
}

func TestPool_AllProvidersExhausted(t *testing.T) {
	table := testTable(1, 1)
	free := newTestProvider("key-free", TierFree, table, mocks.NewMockExecutor("ok"))
	paid := newTestProvider("key-paid", TierPaid, table, mocks.NewMockExecutor("ok"))
	recordN(t, free, 1)
	recordN(t, paid, 1)

	pool, err := NewPool([]*providers.Provider{free, paid}, &CostOptimizedStrategy{})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	_, err = pool.Execute(context.Background(), testModel, &providers.Request{Prompt: "p"})
	if err == nil {
		t.Fatal("Expected error when all providers are exhausted")
	}
	if !errors.Is(err, ErrNoProvidersAvailable) {
		t.Errorf("Expected ErrNoProvidersAvailable, got %v", err)
	}
	var npe *NoProvidersAvailableError
	if !errors.As(err, &npe) || npe.Model != testModel {
		t.Errorf("Expected error to name the model, got %v", err)
	}
}

// An upstream 429 on the selected provider triggers exactly one failover hop.
func TestPool_FailoverOnUpstreamRateLimit(t *testing.T) {
	table := testTable(5, 5)
	freeExec := mocks.NewMockExecutor("").Fail(&providers.UpstreamRateLimitError{
		KeyID:      "key-free",
		RetryAfter: 30 * time.Second,
		Message:    "too many requests",
	})
	paidExec := mocks.NewMockExecutor("from-paid")
	free := newTestProvider("key-free", TierFree, table, freeExec)
	paid := newTestProvider("key-paid", TierPaid, table, paidExec)

	pool, err := NewPool([]*providers.Provider{free, paid}, &CostOptimizedStrategy{})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	text, err := pool.Execute(context.Background(), testModel, &providers.Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if text != "from-paid" {
		t.Errorf("Expected fallback response, got %q", text)
	}

	// The 429 force-filled the free provider's minute window.
	if free.CanHandle(testModel) {
		t.Error("Expected rate-limited provider to be marked unavailable")
	}
	if paidExec.CallCount() != 1 {
		t.Errorf("Expected 1 fallback call, got %d", paidExec.CallCount())
	}
}

// The failover budget is one hop: if the fallback also rate-limits, its
// error propagates.
func TestPool_SingleFailoverHop(t *testing.T) {
	table := testTable(5, 5)
	freeExec := mocks.NewMockExecutor("").Fail(&providers.UpstreamRateLimitError{KeyID: "key-free", Message: "429"})
	paidExec := mocks.NewMockExecutor("").Fail(&providers.UpstreamRateLimitError{KeyID: "key-paid", Message: "429"})
	free := newTestProvider("key-free", TierFree, table, freeExec)
	paid := newTestProvider("key-paid", TierPaid, table, paidExec)

	pool, err := NewPool([]*providers.Provider{free, paid}, &CostOptimizedStrategy{})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	_, err = pool.Execute(context.Background(), testModel, &providers.Request{Prompt: "p"})
	if err == nil {
		t.Fatal("Expected error when both providers rate-limit")
	}
	if !errors.Is(err, providers.ErrUpstreamRateLimited) {
		t.Errorf("Expected the fallback's rate-limit error, got %v", err)
	}
	if freeExec.CallCount() != 1 || paidExec.CallCount() != 1 {
		t.Errorf("Expected exactly one call per provider, got free=%d paid=%d",
			freeExec.CallCount(), paidExec.CallCount())
	}
}

func TestPool_NonRateLimitErrorPropagatesWithoutFailover(t *testing.T) {
	table := testTable(5, 5)
	freeExec := mocks.NewMockExecutor("").Fail(&providers.ProviderError{
		KeyID:      "key-free",
		StatusCode: 500,
		Message:    "internal server error",
	})
	paidExec := mocks.NewMockExecutor("from-paid")
	free := newTestProvider("key-free", TierFree, table, freeExec)
	paid := newTestProvider("key-paid", TierPaid, table, paidExec)

	pool, err := NewPool([]*providers.Provider{free, paid}, &CostOptimizedStrategy{})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	_, err = pool.Execute(context.Background(), testModel, &providers.Request{Prompt: "p"})
	if err == nil {
		t.Fatal("Expected the upstream error to propagate")
	}
	var pe *providers.ProviderError
	if !errors.As(err, &pe) || pe.StatusCode != 500 {
		t.Errorf("Expected the original provider error, got %v", err)
	}
	if paidExec.CallCount() != 0 {
		t.Errorf("Expected no failover for a non-rate-limit error, got %d calls", paidExec.CallCount())
	}
}

func TestPool_SetStrategy(t *testing.T) {
	table := testTable(5, 5)
	free := newTestProvider("key-free", TierFree, table, mocks.NewMockExecutor("ok"))
	paid := newTestProvider("key-paid", TierPaid, table, mocks.NewMockExecutor("ok"))

	pool, err := NewPool([]*providers.Provider{free, paid}, &CostOptimizedStrategy{})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	if pool.StrategyName() != StrategyCost {
		t.Errorf("Expected initial strategy %q, got %q", StrategyCost, pool.StrategyName())
	}

	selected, err := pool.SelectProvider(testModel)
	if err != nil {
		t.Fatalf("SelectProvider failed: %v", err)
	}
	if selected.KeyID() != "key-free" {
		t.Errorf("Cost strategy should pick free, got %s", selected.KeyID())
	}

	pool.SetStrategy(&PerformanceOptimizedStrategy{})
	if pool.StrategyName() != StrategyPerformance {
		t.Errorf("Expected strategy %q after swap, got %q", StrategyPerformance, pool.StrategyName())
	}

	selected, err = pool.SelectProvider(testModel)
	if err != nil {
		t.Fatalf("SelectProvider failed: %v", err)
	}
	if selected.KeyID() != "key-paid" {
		t.Errorf("Performance strategy should pick paid, got %s", selected.KeyID())
	}
}

func TestPool_RecordsUsage(t *testing.T) {
	table := testTable(1, 5)
	free := newTestProvider("key-free", TierFree, table, mocks.NewMockExecutor("from-free"))
	paid := newTestProvider("key-paid", TierPaid, table, mocks.NewMockExecutor("from-paid"))
	store := usage.NewMemoryStore()

	pool, err := NewPool([]*providers.Provider{free, paid}, &CostOptimizedStrategy{},
		WithUsageStore(store))
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := pool.Execute(ctx, testModel, &providers.Request{Prompt: "p"}); err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
	}

	records, err := store.List(ctx, time.Time{}, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 usage records, got %d", len(records))
	}

	// Newest first: second call spilled to paid.
	if records[0].KeyID != "key-paid" || records[0].Outcome != usage.OutcomeSuccess {
		t.Errorf("Unexpected newest record: %+v", records[0])
	}
	if records[1].KeyID != "key-free" {
		t.Errorf("Unexpected oldest record: %+v", records[1])
	}
	if records[0].RequestID == "" || records[0].RequestID == records[1].RequestID {
		t.Error("Expected distinct non-empty request IDs")
	}
}

func TestPool_Availability(t *testing.T) {
	table := testTable(2, 5)
	free := newTestProvider("key-free", TierFree, table, mocks.NewMockExecutor("ok"))
	paid := newTestProvider("key-paid", TierPaid, table, mocks.NewMockExecutor("ok"))
	recordN(t, free, 1)

	pool, err := NewPool([]*providers.Provider{free, paid}, &CostOptimizedStrategy{})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	report := pool.Availability(testModel)
	if report.Model != testModel {
		t.Errorf("Expected model %q, got %q", testModel, report.Model)
	}
	if len(report.Providers) != 2 {
		t.Fatalf("Expected 2 providers in report, got %d", len(report.Providers))
	}

	for _, pa := range report.Providers {
		if pa.KeyID == "key-free" {
			if len(pa.Periods) != 1 || pa.Periods[0].Used != 1 || pa.Periods[0].Available != 1 {
				t.Errorf("Unexpected free availability: %+v", pa.Periods)
			}
			if !pa.CanHandle {
				t.Error("Free provider should still have headroom")
			}
		}
	}

	full := pool.AvailabilityReport()
	if len(full) != 1 || full[0].Model != testModel {
		t.Errorf("Expected one model in full report, got %+v", full)
	}
}
