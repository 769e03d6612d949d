// Package ws implements the WebSocket event stream for alertd.
//
// Hub is an alerts.Sink. Every event the engine records is pushed to all
// connected clients as it happens, and the active-alert status is re-sent on
// a configurable interval so late joiners and idle dashboards stay current.
//
// New(engine, interval) creates a Hub; register it with engine.AddSink.
// Hub.Run(ctx) runs the broadcast loop until ctx is cancelled, then closes all
// active connections.
// Hub.ServeHTTP upgrades an HTTP connection to WebSocket and sends the current
// status immediately on connect.
//
// Message format sent to clients:
//
//	{"event": "alert_event", "data": { /* alerts.Event */ }}
//	{"event": "status",      "data": { /* same schema as GET /api/v1/alert */ }}
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level. The endpoint is mounted at /ws/events by the server.
package ws
