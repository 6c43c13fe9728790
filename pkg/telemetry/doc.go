// Package telemetry groups the observability subpackages.
//
//   - logging: structured slog logger construction
//   - metrics: Prometheus metrics for rule evaluation
//
// Components take their logger and metrics handles explicitly; there is no
// package-level telemetry state.
package telemetry
