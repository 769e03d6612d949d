package alerts

import (
	"fmt"
	"time"
)

// Schedule evaluates the repeat-notification and skip-level deadlines of the
// active alert at now. It is a no-op when no alert is active.
func (e *Engine) Schedule(now time.Time) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	events := e.schedule(now)
	e.record(events)
	return events
}

// schedule must be called with e.mu held. Both checks compare against absolute
// times, so a missed tick fires on the next one, at most once per call.
func (e *Engine) schedule(now time.Time) []Event {
	a := e.active
	if a == nil {
		return nil
	}

	var events []Event
	repeat := e.cfg.RepeatIntervals.For(a.Severity)

	if now.Sub(a.LastNotifiedTime) >= repeat {
		events = append(events, newEvent(now, KindResent, a.Severity, a.ID,
			fmt.Sprintf("ALERT: Resending %s alert", a.Severity)))
		a.LastNotifiedTime = now
	}

	if !now.Before(a.SkipLevelDeadline) {
		events = append(events, newEvent(now, KindSkipLevel, a.Severity, a.ID,
			fmt.Sprintf("ALERT: Sending escalation to skip-level boss for %s alert", a.Severity)))
		a.SkipLevelDeadline = now.Add(e.cfg.SkipLevelPeriod(a.Severity))
	}
	return events
}
