package alerts

import (
	"context"
	"log/slog"
	"time"

	"github.com/obsidianstack/alertd/pkg/types"
)

// Kind classifies an Event or event log entry.
type Kind string

const (
	KindTriggered Kind = "triggered"
	KindResolved  Kind = "resolved"
	KindEscalated Kind = "escalated"
	KindResent    Kind = "resent"
	KindSkipLevel Kind = "skip_level"
	KindMalformed Kind = "malformed_sample"

	// Log-only kinds: written to the event log, never handed to sinks.
	KindSample Kind = "sample"
	KindSystem Kind = "system"
)

// Event is one alert lifecycle transition or notification.
type Event struct {
	ID       string         `json:"id"`
	AlertID  string         `json:"alert_id,omitempty"`
	Time     time.Time      `json:"time"`
	Severity types.Severity `json:"severity"`
	Kind     Kind           `json:"kind"`
	Message  string         `json:"message"`
}

// Sink receives every Event the engine produces. Publish is called from the
// tick goroutine and must not block; delivery failures stay inside the sink.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Publish(ev Event) { f(ev) }

// LogSink writes events to the default slog logger.
type LogSink struct{}

func (LogSink) Publish(ev Event) {
	level := slog.LevelWarn
	if ev.Kind == KindResolved {
		level = slog.LevelInfo
	}
	slog.Log(context.Background(), level, ev.Message,
		"kind", ev.Kind,
		"severity", ev.Severity.String(),
		"alert_id", ev.AlertID,
	)
}
