// Package alerts implements the alert lifecycle engine.
//
// Classify maps a metric sample to a severity using the threshold table.
// Engine owns the single active-alert slot and applies, once per tick:
//
//   - Update: create, resolve or escalate the alert from the new severity
//   - Schedule: repeat notifications and skip-level escalation deadlines
//
// Escalation direction is configurable. The "intended" policy (default)
// replaces the alert when the new severity is strictly more severe. The
// "literal" policy replaces it when the new severity is strictly less severe,
// which is how the legacy monitor script compared positions in [P2, P1, P0].
// A replaced alert always starts with fresh timers.
//
// Every transition yields an Event. Events are appended to the event log and
// handed to each configured Sink; sinks never feed back into the engine.
package alerts
