// Package telemetry groups the observability subpackages.
//
//   - logging: structured logging via log/slog
//   - metrics: Prometheus metrics for retention runs
//   - health: liveness and readiness endpoints for the daemon
package telemetry
