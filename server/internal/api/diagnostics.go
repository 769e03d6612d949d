package api

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/obsidianstack/alertd/pkg/types"
	"github.com/obsidianstack/alertd/server/internal/alerts"
	"github.com/obsidianstack/alertd/server/internal/config"
)

// DiagnosticHint is one human-readable insight about the active alert.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "info" | "warning" | "critical".
	Level string `json:"level"`
	// Title is a short label.
	Title string `json:"title"`
	// Detail is the full explanation.
	Detail string `json:"detail"`
	// Value is an optional number behind the hint (ms, ratio or hours).
	Value *float64 `json:"value,omitempty"`
}

var levelRank = map[string]int{"critical": 0, "warning": 1, "info": 2}

// computeDiagnostics explains why a is active and when it will notify next.
// Hints are ordered critical first, then warnings, then info.
func computeDiagnostics(a alerts.Alert, cfg config.AlertsConfig, now time.Time) []DiagnosticHint {
	var hints []DiagnosticHint
	limit := cfg.Thresholds.For(a.Severity)
	level := severityLevel(a.Severity)

	// ── Breached limits ──────────────────────────────────────────────────────
	if a.Trigger.LatencyMillis > limit.LatencyMillis {
		v := float64(a.Trigger.LatencyMillis)
		hints = append(hints, DiagnosticHint{
			Key:   "latency_breach",
			Level: level,
			Title: fmt.Sprintf("%dms latency", a.Trigger.LatencyMillis),
			Detail: fmt.Sprintf(
				"Latency reached %dms when the alert opened, above the %s limit of %dms.",
				a.Trigger.LatencyMillis, a.Severity, limit.LatencyMillis,
			),
			Value: &v,
		})
	}
	if a.Trigger.FailureRate > limit.FailureRate {
		v := a.Trigger.FailureRate
		hints = append(hints, DiagnosticHint{
			Key:   "failure_breach",
			Level: level,
			Title: fmt.Sprintf("%.2f%% failures", a.Trigger.FailureRate*100),
			Detail: fmt.Sprintf(
				"Failure rate reached %.2f%% when the alert opened, above the %s limit of %.2f%%.",
				a.Trigger.FailureRate*100, a.Severity, limit.FailureRate*100,
			),
			Value: &v,
		})
	}

	// ── Timers ───────────────────────────────────────────────────────────────
	repeat := cfg.RepeatIntervals.For(a.Severity)
	untilRepeat := a.LastNotifiedTime.Add(repeat).Sub(now)
	v := untilRepeat.Hours()
	hints = append(hints, DiagnosticHint{
		Key:   "repeat_due",
		Level: "info",
		Title: "Resend " + inHuman(untilRepeat),
		Detail: fmt.Sprintf(
			"%s alerts are re-sent every %s while they stay active.",
			a.Severity, human(repeat),
		),
		Value: &v,
	})

	untilSkip := a.SkipLevelDeadline.Sub(now)
	skipLevel := "info"
	if untilSkip < repeat {
		skipLevel = "warning"
	}
	sv := untilSkip.Hours()
	hints = append(hints, DiagnosticHint{
		Key:   "skip_level_due",
		Level: skipLevel,
		Title: "Skip-level " + inHuman(untilSkip),
		Detail: fmt.Sprintf(
			"If the alert is still %s at %s, it is escalated to the skip-level contact.",
			a.Severity, a.SkipLevelDeadline.UTC().Format(time.RFC3339),
		),
		Value: &sv,
	})

	sort.SliceStable(hints, func(i, j int) bool {
		return levelRank[hints[i].Level] < levelRank[hints[j].Level]
	})
	return hints
}

func severityLevel(s types.Severity) string {
	switch s {
	case types.P0:
		return "critical"
	case types.P1:
		return "warning"
	default:
		return "info"
	}
}

// inHuman renders d as "in 1h30m", or "overdue" once it has passed.
func inHuman(d time.Duration) string {
	if d <= 0 {
		return "overdue"
	}
	return "in " + human(d)
}

// human formats d to the minute without trailing zero units: 2h, 1h30m, 10m.
func human(d time.Duration) string {
	s := d.Round(time.Minute).String()
	s = strings.TrimSuffix(s, "0s")
	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}
	if s == "" {
		return "<1m"
	}
	return s
}
