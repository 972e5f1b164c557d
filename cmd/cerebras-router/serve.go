package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/coderashed/cerebras-code-mcp/pkg/config"
	"github.com/coderashed/cerebras-code-mcp/pkg/providers"
	"github.com/coderashed/cerebras-code-mcp/pkg/routing"
	"github.com/coderashed/cerebras-code-mcp/pkg/telemetry/metrics"
	"github.com/coderashed/cerebras-code-mcp/pkg/usage"
)

var serveFlags struct {
	listenAddress string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the router as an HTTP service",
	Long: `Run the router as a long-lived HTTP service.

Endpoints:
  POST /v1/completions   route one completion request
  GET  /v1/availability  quota availability report
  GET  /healthz          liveness probe

With metrics enabled in the configuration, Prometheus metrics are served on
a separate listener. With watch enabled, the configuration file is watched
and the routing strategy is hot-swapped on change; credential and quota
changes still require a restart.

Examples:
  # Start with the default config
  cerebras-router serve

  # Override the listen address
  cerebras-router serve --listen 0.0.0.0:8585`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "127.0.0.1:8585", "API listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnv(cfgFile)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	store, err := buildUsageStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	rm := metrics.NewRouterMetrics("cerebras", registry)

	pool, err := buildPool(cfg, logger,
		routing.WithMetrics(rm),
		routing.WithUsageStore(store))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Retention pruning on the configured cron schedule.
	if cfg.Usage.RetentionDays > 0 {
		pruner, err := usage.NewPruner(store, cfg.RetentionDuration(), logger)
		if err != nil {
			return err
		}
		scheduler, err := usage.NewScheduler(pruner, cfg.Usage.PruneSchedule, logger)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Config watching hot-swaps the strategy.
	if cfg.Watch {
		watcher, err := config.NewWatcher(cfgFile, logger)
		if err != nil {
			return err
		}
		go watcher.Watch(ctx, func() error {
			reloaded, err := config.LoadWithEnv(cfgFile)
			if err != nil {
				return err
			}
			strategy, err := routing.NewStrategy(reloaded.Strategy)
			if err != nil {
				return err
			}
			pool.SetStrategy(strategy)
			return nil
		})
		defer watcher.Stop()
	}

	if cfg.Telemetry.Metrics.Enabled {
		go serveMetrics(ctx, cfg, registry, logger)
	}

	api := &http.Server{
		Addr:         serveFlags.listenAddress,
		Handler:      apiHandler(pool, logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Upstream.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "address", serveFlags.listenAddress)
		if err := api.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return api.Shutdown(shutdownCtx)
}

// serveMetrics runs the Prometheus listener until the context is cancelled.
func serveMetrics(ctx context.Context, cfg *config.Config, registry *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Telemetry.Metrics.Path, metrics.Handler(registry))

	server := &http.Server{
		Addr:         cfg.Telemetry.Metrics.ListenAddress,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("Metrics server listening",
		"address", cfg.Telemetry.Metrics.ListenAddress,
		"path", cfg.Telemetry.Metrics.Path,
	)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Metrics server failed", "error", err)
	}
}

// completionRequest is the API request body for POST /v1/completions.
type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	System      string  `json:"system,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// completionResponse is the API response body for POST /v1/completions.
type completionResponse struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func apiHandler(pool *routing.Pool, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/completions", func(w http.ResponseWriter, r *http.Request) {
		var req completionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
			return
		}
		if req.Model == "" || req.Prompt == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "model and prompt are required"})
			return
		}

		text, err := pool.Execute(r.Context(), req.Model, &providers.Request{
			Prompt:      req.Prompt,
			System:      req.System,
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
		})
		if err != nil {
			writeJSON(w, statusForError(err), errorResponse{Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, completionResponse{Text: text})
	})

	mux.HandleFunc("GET /v1/availability", func(w http.ResponseWriter, r *http.Request) {
		if model := r.URL.Query().Get("model"); model != "" {
			writeJSON(w, http.StatusOK, []routing.ModelAvailability{pool.Availability(model)})
			return
		}
		writeJSON(w, http.StatusOK, pool.AvailabilityReport())
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return mux
}

// statusForError maps routing errors to HTTP status codes: rate-limit
// conditions map to 429, everything else upstream-shaped to 502.
func statusForError(err error) int {
	switch {
	case errors.Is(err, routing.ErrNoProvidersAvailable),
		errors.Is(err, providers.ErrRateLimitExceeded),
		errors.Is(err, providers.ErrUpstreamRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, providers.ErrNoConfigForModel):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
