// Package ratewindow provides time-windowed event counters used for
// admission control against request quotas.
//
// Two counter variants are provided:
//
//   - RollingWindow approximates a sliding window of the trailing W seconds
//     using a circular buffer of fixed-width buckets. Accuracy is within one
//     bucket width.
//   - FixedWindow counts events since the last aligned boundary. Windows of
//     exactly 24 hours align to local midnight (daily quotas); all other
//     durations align to the counter's creation time.
//
// Both counters are thread-safe and hold only in-memory state; all counts
// reset to zero on process restart.
package ratewindow
