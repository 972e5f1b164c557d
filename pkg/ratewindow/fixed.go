package ratewindow

import (
	"sync"
	"time"
)

// Day is the window duration that triggers calendar alignment: a FixedWindow
// created with this duration counts events since local midnight.
const Day = 24 * time.Hour

// FixedWindow counts events since the last aligned window boundary.
//
// A window of exactly 24 hours aligns to 00:00:00 local time of the current
// day, matching provider-side daily quotas. Any other duration aligns to the
// counter's creation time.
//
// Unlike RollingWindow, all events vanish at once when the boundary passes.
//
// FixedWindow is thread-safe using sync.Mutex.
type FixedWindow struct {
	duration    time.Duration
	daily       bool // aligned to local midnight
	count       int64
	windowStart time.Time
	now         func() time.Time
	mu          sync.Mutex
}

// NewFixedWindow creates a fixed-boundary counter for the given duration.
func NewFixedWindow(duration time.Duration) *FixedWindow {
	return NewFixedWindowWithClock(duration, time.Now)
}

// NewFixedWindowWithClock creates a fixed-boundary counter with a custom
// time source. Used by tests to control boundary crossings deterministically.
func NewFixedWindowWithClock(duration time.Duration, now func() time.Time) *FixedWindow {
	fw := &FixedWindow{
		duration: duration,
		daily:    duration == Day,
		now:      now,
	}
	fw.windowStart = fw.alignedStart(now())
	return fw
}

// Increment records one event in the current window.
func (fw *FixedWindow) Increment() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	fw.resetIfExpiredLocked()
	fw.count++
}

// Count returns the number of events recorded since the window start.
func (fw *FixedWindow) Count() int64 {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	fw.resetIfExpiredLocked()
	return fw.count
}

// CanIncrement reports whether recording one more event would keep the
// window count below limit.
func (fw *FixedWindow) CanIncrement(limit int64) bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	fw.resetIfExpiredLocked()
	return fw.count < limit
}

// TimeUntilReset returns how long until the current window expires.
// Diagnostics only; enforcement relies on resetIfExpired.
func (fw *FixedWindow) TimeUntilReset() time.Duration {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	fw.resetIfExpiredLocked()

	remaining := fw.windowStart.Add(fw.duration).Sub(fw.now())
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Reset zeroes the counter and re-aligns the window start to the current
// boundary. Administrative use only.
func (fw *FixedWindow) Reset() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	fw.count = 0
	fw.windowStart = fw.alignedStart(fw.now())
}

// WindowStart returns the start of the current window.
func (fw *FixedWindow) WindowStart() time.Time {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	fw.resetIfExpiredLocked()
	return fw.windowStart
}

// resetIfExpiredLocked zeroes the counter and re-aligns the window start
// when the boundary has passed. Caller must hold the lock.
func (fw *FixedWindow) resetIfExpiredLocked() {
	now := fw.now()
	if now.Before(fw.windowStart.Add(fw.duration)) {
		return
	}

	fw.count = 0
	fw.windowStart = fw.alignedStart(now)
}

// alignedStart returns the window start boundary for the given time.
// Daily windows truncate to local midnight; others keep whole-duration
// alignment relative to the original start so boundaries stay regular.
func (fw *FixedWindow) alignedStart(now time.Time) time.Time {
	if fw.daily {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}

	if fw.windowStart.IsZero() || now.Before(fw.windowStart) {
		return now
	}

	elapsed := now.Sub(fw.windowStart)
	periods := elapsed / fw.duration
	return fw.windowStart.Add(periods * fw.duration)
}
