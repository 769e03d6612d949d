package alerts

import (
	"github.com/obsidianstack/alertd/pkg/types"
	"github.com/obsidianstack/alertd/server/internal/config"
)

// Classify maps a sample to the most severe level whose limits it breaches,
// checking P0, then P1, then P2. Either axis alone is enough to breach a level.
// Classify returns types.None when no level is breached.
func Classify(s types.MetricSample, th config.Thresholds) types.Severity {
	for _, sev := range types.Tracked {
		if breaches(s, th.For(sev)) {
			return sev
		}
	}
	return types.None
}

// breaches reports whether s is strictly above l on latency or failure rate.
func breaches(s types.MetricSample, l config.Limit) bool {
	return s.LatencyMillis > l.LatencyMillis || s.FailureRate > l.FailureRate
}
