package usage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner deletes usage records older than a retention period.
type Pruner struct {
	store     Store
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewPruner creates a pruner. retention must be positive.
func NewPruner(store Store, retention time.Duration, logger *slog.Logger) (*Pruner, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive, got %v", retention)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		store:     store,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Prune deletes records older than the retention cutoff.
func (p *Pruner) Prune(ctx context.Context) (int, error) {
	cutoff := p.now().Add(-p.retention)

	deleted, err := p.store.Prune(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention prune failed: %w", err)
	}

	if deleted > 0 {
		p.logger.Info("Pruned usage records",
			slog.Int("deleted", deleted),
			slog.Time("cutoff", cutoff),
		)
	}
	return deleted, nil
}

// Scheduler runs retention pruning on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	pruner  *Pruner
	logger  *slog.Logger
	mu      sync.Mutex
	started bool
}

// NewScheduler creates a scheduler that runs the pruner on the given cron
// schedule (standard five-field syntax, e.g. "0 3 * * *" for daily at 3am).
func NewScheduler(pruner *Pruner, schedule string, logger *slog.Logger) (*Scheduler, error) {
	if pruner == nil {
		return nil, fmt.Errorf("pruner cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	s := &Scheduler{
		cron:   cron.New(),
		pruner: pruner,
		logger: logger,
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("failed to schedule prune job: %w", err)
	}

	return s, nil
}

// Start begins scheduled pruning. Start is idempotent.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
	s.logger.Info("Usage retention scheduler started")
}

// Stop halts scheduling and waits for any in-flight prune to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Usage retention scheduler stopped")
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := s.pruner.Prune(ctx); err != nil {
		s.logger.Error("Scheduled usage prune failed", slog.String("error", err.Error()))
	}
}
