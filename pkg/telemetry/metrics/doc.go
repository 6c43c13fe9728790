// Package metrics provides Prometheus instrumentation for the rule
// engine: execution counters and durations, per-rule hit/miss/error
// counters, an open-session gauge, and the HTTP exposition handler.
package metrics
