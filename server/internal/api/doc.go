// Package api implements the read-only HTTP REST API for alertd.
//
// New(engine, logs) returns an http.Handler that serves:
//
//	GET /api/v1/health   state ("ok" | "alerting"), active severity, log size
//	GET /api/v1/alert    the active alert with timers and diagnostics
//	GET /api/v1/events   the event log; ?since=<RFC3339> and ?kind=<kind> filter
//
// All endpoints:
//   - Respond with Content-Type: application/json
//   - Return 405 for non-GET methods
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
