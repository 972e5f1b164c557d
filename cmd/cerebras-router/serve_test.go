package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coderashed/cerebras-code-mcp/pkg/config"
	"github.com/coderashed/cerebras-code-mcp/pkg/providers"
	"github.com/coderashed/cerebras-code-mcp/pkg/quota"
	"github.com/coderashed/cerebras-code-mcp/pkg/routing"
)

func testPool(t *testing.T, minuteLimit int) *routing.Pool {
	t.Helper()

	table := quota.Table{
		"qwen-3-coder-480b": {
			"free": {ContextWindow: 65536, Limits: quota.LimitSet{quota.PeriodMinute: minuteLimit}},
		},
	}
	exec := providers.ExecutorFunc(func(_ context.Context, _ string, _ *providers.Request) (string, error) {
		return "completion text", nil
	})
	prov := providers.NewProvider("key-1", "free", exec, table)

	pool, err := routing.NewPool([]*providers.Provider{prov}, &routing.CostOptimizedStrategy{})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	return pool
}

func TestAPIHandler_Completions(t *testing.T) {
	handler := apiHandler(testPool(t, 5), slog.Default())

	body := `{"model":"qwen-3-coder-480b","prompt":"write a quicksort"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/completions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp completionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Text != "completion text" {
		t.Errorf("Expected completion text, got %q", resp.Text)
	}
}

func TestAPIHandler_MissingFields(t *testing.T) {
	handler := apiHandler(testPool(t, 5), slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/v1/completions", strings.NewReader(`{"model":"m"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing prompt, got %d", rec.Code)
	}
}

func TestAPIHandler_RateLimited(t *testing.T) {
	handler := apiHandler(testPool(t, 1), slog.Default())

	body := `{"model":"qwen-3-coder-480b","prompt":"p"}`
	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/v1/completions", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("Call %d: expected %d, got %d", i+1, want, rec.Code)
		}
	}
}

func TestAPIHandler_Availability(t *testing.T) {
	handler := apiHandler(testPool(t, 5), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/v1/availability", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var report []routing.ModelAvailability
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	if len(report) != 1 || report[0].Model != "qwen-3-coder-480b" {
		t.Errorf("Unexpected report: %+v", report)
	}
}

func TestBuildPool(t *testing.T) {
	cfg := &config.Config{
		Strategy: "balanced",
		Credentials: []config.CredentialConfig{
			{Name: "key-1", APIKey: "csk-1", Tier: "free"},
			{Name: "key-2", APIKey: "csk-2", Tier: "paid"},
		},
		Models: map[string]map[string]config.ModelQuotaConfig{
			"qwen-3-coder-480b": {
				"free": {Limits: config.LimitsConfig{Requests: config.RequestLimitsConfig{Minute: 10}}},
				"paid": {Limits: config.LimitsConfig{Requests: config.RequestLimitsConfig{Minute: 50}}},
			},
		},
	}
	config.ApplyDefaults(cfg)

	pool, err := buildPool(cfg, slog.Default())
	if err != nil {
		t.Fatalf("buildPool failed: %v", err)
	}
	if pool.StrategyName() != routing.StrategyBalanced {
		t.Errorf("Expected balanced strategy, got %s", pool.StrategyName())
	}
	if len(pool.Providers()) != 2 {
		t.Errorf("Expected 2 providers, got %d", len(pool.Providers()))
	}
}

func TestBuildUsageStore(t *testing.T) {
	cfg := &config.Config{Usage: config.UsageConfig{Backend: "memory"}}
	store, err := buildUsageStore(cfg)
	if err != nil {
		t.Fatalf("buildUsageStore failed: %v", err)
	}
	store.Close()

	cfg.Usage.Backend = "etcd"
	if _, err := buildUsageStore(cfg); err == nil {
		t.Error("Expected error for unknown backend")
	}
}
