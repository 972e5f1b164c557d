package quota

import (
	"fmt"
	"sort"
	"time"

	"github.com/coderashed/cerebras-code-mcp/pkg/ratewindow"
)

// counter is the common surface of the ratewindow counter variants.
type counter interface {
	Increment()
	Count() int64
	CanIncrement(limit int64) bool
	Reset()
}

// periodCounter pairs one quota period with its counter and limit.
type periodCounter struct {
	period  Period
	limit   int64
	counter counter
}

// Tracker aggregates one time-window counter per configured quota period
// for a single (credential, model) pair.
//
// Admission uses AND semantics: CanHandle is true only while every period
// still has headroom. Periods are checked shortest window first so the
// common case (an exhausted minute limit) fails fast.
//
// The counters are individually thread-safe; Tracker itself holds no
// mutable state after construction.
type Tracker struct {
	counters []periodCounter // sorted by window duration, ascending
}

// NewTracker creates a tracker for the given limit set.
// Returns an error if the set is empty or names an unknown period.
func NewTracker(limits LimitSet) (*Tracker, error) {
	return NewTrackerWithClock(limits, time.Now)
}

// NewTrackerWithClock creates a tracker with a custom time source for the
// underlying counters. Used by tests to control window expiry.
func NewTrackerWithClock(limits LimitSet, now func() time.Time) (*Tracker, error) {
	if len(limits) == 0 {
		return nil, fmt.Errorf("limit set cannot be empty")
	}

	t := &Tracker{}
	for period, limit := range limits {
		duration, ok := period.Duration()
		if !ok {
			return nil, fmt.Errorf("unknown quota period %q", period)
		}
		if limit <= 0 {
			return nil, fmt.Errorf("quota period %q limit must be positive, got %d", period, limit)
		}

		t.counters = append(t.counters, periodCounter{
			period:  period,
			limit:   int64(limit),
			counter: newCounterForPeriod(duration, now),
		})
	}

	sort.Slice(t.counters, func(i, j int) bool {
		di, _ := t.counters[i].period.Duration()
		dj, _ := t.counters[j].period.Duration()
		return di < dj
	})

	return t, nil
}

// newCounterForPeriod picks the counter variant for a window duration.
// Daily quotas are accounted against calendar days by the upstream
// provider, so the day period uses a midnight-aligned fixed window.
func newCounterForPeriod(duration time.Duration, now func() time.Time) counter {
	if duration == ratewindow.Day {
		return ratewindow.NewFixedWindowWithClock(duration, now)
	}

	// 60 buckets per window keeps the approximation error under 2%.
	bucket := duration / 60
	if bucket < time.Second {
		bucket = time.Second
	}
	return ratewindow.NewRollingWindowWithClock(duration, bucket, now)
}

// RecordRequest counts one request against every configured period.
func (t *Tracker) RecordRequest() {
	for _, pc := range t.counters {
		pc.counter.Increment()
	}
}

// CanHandle reports whether every configured period still has headroom.
// Returns false as soon as any period is at or above its limit.
func (t *Tracker) CanHandle() bool {
	for _, pc := range t.counters {
		if !pc.counter.CanIncrement(pc.limit) {
			return false
		}
	}
	return true
}

// Bottleneck returns the period with the highest utilization ratio.
// Diagnostics only; never used for control flow.
func (t *Tracker) Bottleneck() Period {
	var (
		worst      Period
		worstRatio = -1.0
	)
	for _, pc := range t.counters {
		ratio := float64(pc.counter.Count()) / float64(pc.limit)
		if ratio > worstRatio {
			worstRatio = ratio
			worst = pc.period
		}
	}
	return worst
}

// Utilization returns a single scalar in [0,1] summarizing usage: the
// highest used/limit ratio across periods, clamped to 1.
func (t *Tracker) Utilization() float64 {
	var worst float64
	for _, pc := range t.counters {
		ratio := float64(pc.counter.Count()) / float64(pc.limit)
		if ratio > worst {
			worst = ratio
		}
	}
	if worst > 1 {
		worst = 1
	}
	return worst
}

// Availability returns a read-only snapshot of every period, ordered by
// window duration ascending.
func (t *Tracker) Availability() []PeriodAvailability {
	snapshot := make([]PeriodAvailability, 0, len(t.counters))
	for _, pc := range t.counters {
		used := pc.counter.Count()
		available := pc.limit - used
		if available < 0 {
			available = 0
		}
		snapshot = append(snapshot, PeriodAvailability{
			Period:    pc.period,
			Used:      used,
			Limit:     pc.limit,
			Available: available,
		})
	}
	return snapshot
}

// ForceFill fills the given period's counter up to its limit, so local
// admission checks reflect an authoritative upstream rejection even though
// the local window had not reached the limit. No-op for periods not in the
// tracker's limit set.
func (t *Tracker) ForceFill(period Period) {
	for _, pc := range t.counters {
		if pc.period != period {
			continue
		}
		for pc.counter.Count() < pc.limit {
			pc.counter.Increment()
		}
		return
	}
}

// Limit returns the configured limit for a period, or 0 if the period is
// not part of this tracker's limit set.
func (t *Tracker) Limit(period Period) int64 {
	for _, pc := range t.counters {
		if pc.period == period {
			return pc.limit
		}
	}
	return 0
}

// Reset resets every counter. Administrative use only.
func (t *Tracker) Reset() {
	for _, pc := range t.counters {
		pc.counter.Reset()
	}
}
