package ratewindow

import (
	"sync"
	"time"
)

// RollingWindow counts events within the trailing window duration using a
// circular buffer of fixed-width buckets.
//
// # Algorithm
//
// Each bucket covers one bucketSize slice of time. On every operation the
// window first rotates: the number of whole buckets elapsed since the last
// rotation is computed, and for each elapsed bucket (capped at the buffer
// length) the write position advances and the bucket entering the window is
// zeroed. The rotation clock then advances by exactly that many bucket
// widths rather than jumping to the current time, so fractional time inside
// the current bucket carries over between calls and repeated rounding cannot
// drift the window.
//
// # Accuracy
//
// Count reports events in the trailing window to within one bucket width:
// an event is never included once it is older than window + bucketSize.
//
// # Thread Safety
//
// RollingWindow is thread-safe using sync.Mutex.
type RollingWindow struct {
	window     time.Duration // Total window duration
	bucketSize time.Duration // Width of each bucket
	buckets    []int64       // Circular buffer of per-bucket counts
	head       int           // Current write position
	lastRotate time.Time     // Rotation clock, advances in whole bucket widths
	now        func() time.Time
	mu         sync.Mutex
}

// NewRollingWindow creates a rolling window counter.
//
// The buffer holds ceil(window/bucketSize) buckets. Smaller buckets give
// better accuracy at the cost of memory.
//
// Example:
//
//	// 1-minute window with 1-second buckets (60 buckets)
//	rw := NewRollingWindow(time.Minute, time.Second)
func NewRollingWindow(window, bucketSize time.Duration) *RollingWindow {
	return NewRollingWindowWithClock(window, bucketSize, time.Now)
}

// NewRollingWindowWithClock creates a rolling window counter with a custom
// time source. Used by tests to control window expiry deterministically.
func NewRollingWindowWithClock(window, bucketSize time.Duration, now func() time.Time) *RollingWindow {
	numBuckets := int((window + bucketSize - 1) / bucketSize)
	if numBuckets == 0 {
		numBuckets = 1
	}

	return &RollingWindow{
		window:     window,
		bucketSize: bucketSize,
		buckets:    make([]int64, numBuckets),
		lastRotate: now(),
		now:        now,
	}
}

// Increment records one event in the current bucket.
func (rw *RollingWindow) Increment() {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	rw.rotateLocked(rw.now())
	rw.buckets[rw.head]++
}

// Count returns the number of events recorded within the trailing window,
// accurate to within one bucket width.
func (rw *RollingWindow) Count() int64 {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	rw.rotateLocked(rw.now())
	return rw.sumLocked()
}

// CanIncrement reports whether recording one more event would keep the
// window count below limit.
func (rw *RollingWindow) CanIncrement(limit int64) bool {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	rw.rotateLocked(rw.now())
	return rw.sumLocked() < limit
}

// Reset zeroes all buckets and restarts the rotation clock at the current
// time. Administrative use only.
func (rw *RollingWindow) Reset() {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	for i := range rw.buckets {
		rw.buckets[i] = 0
	}
	rw.head = 0
	rw.lastRotate = rw.now()
}

// Window returns the configured window duration.
func (rw *RollingWindow) Window() time.Duration {
	return rw.window
}

// rotateLocked expires buckets that have left the window.
// Caller must hold the lock.
func (rw *RollingWindow) rotateLocked(now time.Time) {
	elapsed := now.Sub(rw.lastRotate)
	steps := int64(elapsed / rw.bucketSize)
	if steps <= 0 {
		return
	}

	// Zeroing more buckets than the buffer holds is redundant.
	zeroSteps := steps
	if zeroSteps > int64(len(rw.buckets)) {
		zeroSteps = int64(len(rw.buckets))
	}

	for i := int64(0); i < zeroSteps; i++ {
		rw.head = (rw.head + 1) % len(rw.buckets)
		rw.buckets[rw.head] = 0
	}

	// Advance by whole bucket widths, not to now, so the fractional part of
	// the current bucket is preserved for the next rotation.
	rw.lastRotate = rw.lastRotate.Add(time.Duration(steps) * rw.bucketSize)
}

// sumLocked returns the total across all buckets.
// Caller must hold the lock.
func (rw *RollingWindow) sumLocked() int64 {
	var sum int64
	for _, v := range rw.buckets {
		sum += v
	}
	return sum
}
