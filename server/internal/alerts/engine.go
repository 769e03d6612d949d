package alerts

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/obsidianstack/alertd/pkg/types"
	"github.com/obsidianstack/alertd/server/internal/config"
	"github.com/obsidianstack/alertd/server/internal/store"
)

// Alert is the single active alert. Severity is never types.None.
type Alert struct {
	ID                string             `json:"id"`
	Severity          types.Severity     `json:"severity"`
	StartTime         time.Time          `json:"start_time"`
	LastNotifiedTime  time.Time          `json:"last_notified_time"`
	SkipLevelDeadline time.Time          `json:"skip_level_deadline"`
	Trigger           types.MetricSample `json:"trigger"`
}

// Engine owns the active-alert slot and the event log, and drives both from
// classified samples.
//
// Engine is safe for concurrent use. Update and Schedule for one tick run
// under the same lock when called through Tick. Events are recorded before the
// lock is released, so every sink sees transitions in order; sinks must not
// call back into the Engine.
type Engine struct {
	cfg   config.AlertsConfig
	logs  *store.Store
	sinks []Sink

	mu     sync.Mutex
	active *Alert
}

// New creates an Engine from the alerts configuration. Events are appended to
// logs and handed to every sink in order. New rejects an invalid table.
func New(cfg config.AlertsConfig, logs *store.Store, sinks ...Sink) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("alerts: %w", err)
	}
	if logs == nil {
		return nil, fmt.Errorf("alerts: event log is required")
	}
	return &Engine{cfg: cfg, logs: logs, sinks: sinks}, nil
}

// AddSink registers s to receive every event recorded from now on.
func (e *Engine) AddSink(s Sink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, s)
}

// Config returns the alerts configuration the engine runs with.
func (e *Engine) Config() config.AlertsConfig { return e.cfg }

// Active returns a copy of the active alert, or false when the slot is empty.
func (e *Engine) Active() (Alert, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return Alert{}, false
	}
	return *e.active, true
}

// Tick runs one monitoring step at now: record the sample, apply Update and
// Schedule under one lock, record the resulting events, then prune the log.
// A malformed sample skips Update and Schedule for this tick.
func (e *Engine) Tick(now time.Time, s types.MetricSample) []Event {
	e.logs.Append(store.Entry{
		Timestamp: now,
		Kind:      string(KindSample),
		Message: fmt.Sprintf("INFO: Current metrics => Latency=%dms, Failure Rate=%.2f%%",
			s.LatencyMillis, s.FailureRate*100),
	})

	e.mu.Lock()
	events := e.update(now, s)
	if len(events) == 0 || events[0].Kind != KindMalformed {
		events = append(events, e.schedule(now)...)
	}
	e.record(events)
	e.mu.Unlock()

	if n := e.logs.Prune(now); n > 0 {
		slog.Debug("alerts: pruned event log", "removed", n, "remaining", e.logs.Len())
	}
	return events
}

// Update applies the state machine to the classification of s at now.
func (e *Engine) Update(now time.Time, s types.MetricSample) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	events := e.update(now, s)
	e.record(events)
	return events
}

// Note writes a log-only system entry, such as startup or shutdown.
func (e *Engine) Note(now time.Time, msg string) {
	e.logs.Append(store.Entry{Timestamp: now, Kind: string(KindSystem), Message: msg})
	slog.Info(msg)
}

// update must be called with e.mu held.
func (e *Engine) update(now time.Time, s types.MetricSample) []Event {
	if err := s.Validate(); err != nil {
		return []Event{newEvent(now, KindMalformed, types.None, "",
			fmt.Sprintf("Rejected malformed sample: %v", err))}
	}

	next := Classify(s, e.cfg.Thresholds)

	if e.active == nil {
		if next == types.None {
			return nil
		}
		e.active = e.newAlert(now, next, s)
		return []Event{newEvent(now, KindTriggered, next, e.active.ID,
			fmt.Sprintf("%s Alert Triggered! (Latency=%dms, FailRate=%.2f%%)",
				next, s.LatencyMillis, s.FailureRate*100))}
	}

	cur := e.active
	switch {
	case next == types.None:
		e.active = nil
		return []Event{newEvent(now, KindResolved, cur.Severity, cur.ID,
			fmt.Sprintf("Latency/Failure Rate Normalized. Resolving %s alert.", cur.Severity))}

	case next == cur.Severity:
		return nil

	case e.shouldEscalate(cur.Severity, next):
		e.active = e.newAlert(now, next, s)
		return []Event{newEvent(now, KindEscalated, next, e.active.ID,
			fmt.Sprintf("Alert Escalated from %s to %s!", cur.Severity, next))}

	default:
		return nil
	}
}

// shouldEscalate is the escalation test between the active severity and a new,
// different, tracked classification.
func (e *Engine) shouldEscalate(cur, next types.Severity) bool {
	if e.cfg.EscalationPolicy == config.PolicyLiteral {
		return cur.MoreSevereThan(next)
	}
	return next.MoreSevereThan(cur)
}

func (e *Engine) newAlert(now time.Time, sev types.Severity, s types.MetricSample) *Alert {
	return &Alert{
		ID:                uuid.NewString(),
		Severity:          sev,
		StartTime:         now,
		LastNotifiedTime:  now,
		SkipLevelDeadline: now.Add(e.cfg.SkipLevelPeriod(sev)),
		Trigger:           s,
	}
}

// record appends events to the log and fans them out to the sinks.
// Callers hold e.mu.
func (e *Engine) record(events []Event) {
	for _, ev := range events {
		e.logs.Append(store.Entry{
			Timestamp: ev.Time,
			Kind:      string(ev.Kind),
			Severity:  ev.Severity,
			Message:   ev.Message,
		})
		for _, s := range e.sinks {
			s.Publish(ev)
		}
	}
}

func newEvent(now time.Time, kind Kind, sev types.Severity, alertID, msg string) Event {
	return Event{
		ID:       uuid.NewString(),
		AlertID:  alertID,
		Time:     now,
		Severity: sev,
		Kind:     kind,
		Message:  msg,
	}
}
