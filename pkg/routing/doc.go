// Package routing selects which rate-limited provider serves each request
// and orchestrates single-hop failover.
//
// Four strategies are provided. CostOptimized prefers free-tier credentials,
// PerformanceOptimized prefers paid-tier credentials, LoadBalanced picks the
// least-utilized credential, and RoundRobin cycles a cursor across the
// currently available candidates. The Pool owns the provider set and the
// active strategy, which can be swapped at runtime.
//
// Failover is bounded: when a selected provider fails with a rate-limit
// condition, the pool excludes it, re-selects once, and retries against the
// fallback. Any failure beyond that single hop propagates to the caller.
// Non-rate-limit errors never trigger failover.
package routing
