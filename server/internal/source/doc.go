// Package source provides the metric producers the monitoring loop pulls one
// sample from per tick.
//
// Implemented sources: Synthetic (synthetic.go), a randomized generator with
// gamma-distributed latency and failure counts, and Prometheus (prometheus.go),
// which evaluates two instant queries against the Prometheus HTTP API. The push
// source lives in package receiver. Factory: New(config.SourceConfig).
package source
