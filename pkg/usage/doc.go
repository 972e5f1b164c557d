// Package usage records per-request routing outcomes for reporting.
//
// Records are observational only: they never feed back into admission
// control, and all quota counters still reset to zero on process restart.
// Two store backends are provided: an in-memory ring for tests and default
// operation, and a SQLite backend for deployments that want usage history
// to survive restarts. A cron-driven retention scheduler prunes old records.
package usage
