// Package metrics exposes alertd's own state as Prometheus metrics.
//
// Metric naming follows Prometheus conventions:
//   - alertd_ prefix for all metrics
//   - _total suffix for counters
//
// A Recorder is an alerts.Sink; register it with the engine and serve the
// registry it was built on.
package metrics
