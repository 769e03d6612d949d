package api

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	State            string  `json:"state"`           // "ok" | "alerting"
	ActiveSeverity   string  `json:"active_severity"` // "none" when no alert is active
	EventLogEntries  int     `json:"event_log_entries"`
	RetentionHours   float64 `json:"retention_hours"`
	EscalationPolicy string  `json:"escalation_policy"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
}

// SampleResponse is the metric sample that opened an alert.
type SampleResponse struct {
	LatencyMillis int64   `json:"latency_ms"`
	FailureRate   float64 `json:"failure_rate"`
}

// AlertResponse is the active alert with its timers resolved to wall-clock times.
type AlertResponse struct {
	ID                string           `json:"id"`
	Severity          string           `json:"severity"`
	StartTime         string           `json:"start_time"`          // RFC3339
	LastNotifiedTime  string           `json:"last_notified_time"`  // RFC3339
	NextRepeatTime    string           `json:"next_repeat_time"`    // RFC3339
	SkipLevelDeadline string           `json:"skip_level_deadline"` // RFC3339
	Trigger           SampleResponse   `json:"trigger"`
	Diagnostics       []DiagnosticHint `json:"diagnostics"`
}

// StatusResponse is the payload for GET /api/v1/alert and the WebSocket
// status message.
type StatusResponse struct {
	Active      bool           `json:"active"`
	Alert       *AlertResponse `json:"alert,omitempty"`
	GeneratedAt string         `json:"generated_at"` // RFC3339
}

// EventResponse is one event log entry in GET /api/v1/events.
type EventResponse struct {
	Timestamp string `json:"timestamp"` // RFC3339
	Kind      string `json:"kind"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
