package types

import "fmt"

// MetricSample is one health observation taken per tick.
type MetricSample struct {
	// LatencyMillis is the observed request latency in milliseconds.
	LatencyMillis int64 `json:"latency_ms"`

	// FailureRate is the fraction of failed requests in [0, 1].
	FailureRate float64 `json:"failure_rate"`
}

// Validate reports a sample that is outside the producer contract:
// negative latency or a failure rate outside [0, 1] (NaN included).
func (m MetricSample) Validate() error {
	if m.LatencyMillis < 0 {
		return fmt.Errorf("latency_ms %d is negative", m.LatencyMillis)
	}
	if !(m.FailureRate >= 0 && m.FailureRate <= 1) {
		return fmt.Errorf("failure_rate %v is outside [0, 1]", m.FailureRate)
	}
	return nil
}
