package api

import (
	"testing"
	"time"

	"github.com/obsidianstack/alertd/pkg/types"
	"github.com/obsidianstack/alertd/server/internal/alerts"
	"github.com/obsidianstack/alertd/server/internal/config"
)

func TestComputeDiagnostics_P0BothBreaches(t *testing.T) {
	cfg := config.Defaults().Alerts
	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	a := alerts.Alert{
		Severity:          types.P0,
		StartTime:         start,
		LastNotifiedTime:  start,
		SkipLevelDeadline: start.Add(10 * time.Hour),
		Trigger:           types.MetricSample{LatencyMillis: 2200, FailureRate: 0.15},
	}

	hints := computeDiagnostics(a, cfg, start.Add(30*time.Minute))

	keys := make([]string, len(hints))
	for i, h := range hints {
		keys[i] = h.Key
	}
	want := []string{"latency_breach", "failure_breach", "repeat_due", "skip_level_due"}
	if len(keys) != len(want) {
		t.Fatalf("keys: got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d: got %q, want %q", i, keys[i], want[i])
		}
	}
	if hints[0].Level != "critical" {
		t.Errorf("latency_breach level: got %q, want critical", hints[0].Level)
	}
	if hints[2].Title != "Resend in 1h30m" {
		t.Errorf("repeat_due title: got %q", hints[2].Title)
	}
}

func TestComputeDiagnostics_SkipLevelSoonIsWarning(t *testing.T) {
	cfg := config.Defaults().Alerts
	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	now := start.Add(230 * time.Hour)
	a := alerts.Alert{
		Severity:          types.P2,
		StartTime:         start,
		LastNotifiedTime:  start.Add(192 * time.Hour),
		SkipLevelDeadline: start.Add(240 * time.Hour),
		Trigger:           types.MetricSample{LatencyMillis: 10, FailureRate: 0.03},
	}

	hints := computeDiagnostics(a, cfg, now)

	// warning first, then info
	if hints[0].Key != "skip_level_due" || hints[0].Level != "warning" {
		t.Fatalf("first hint: got %+v, want skip_level_due warning", hints[0])
	}
	if hints[0].Title != "Skip-level in 10h" {
		t.Errorf("skip_level_due title: got %q", hints[0].Title)
	}
	for _, h := range hints {
		if h.Key == "latency_breach" {
			t.Error("latency below the P2 limit must not be reported")
		}
	}
}

func TestHuman(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{2 * time.Hour, "2h"},
		{90 * time.Minute, "1h30m"},
		{10 * time.Minute, "10m"},
		{20 * time.Second, "<1m"},
		{48 * time.Hour, "48h"},
	}
	for _, tt := range tests {
		if got := human(tt.d); got != tt.want {
			t.Errorf("human(%v): got %q, want %q", tt.d, got, tt.want)
		}
	}
	if got := inHuman(-time.Minute); got != "overdue" {
		t.Errorf("inHuman(negative): got %q, want overdue", got)
	}
}
