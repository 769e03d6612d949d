package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/obsidianstack/alertd/server/internal/alerts"
	"github.com/obsidianstack/alertd/server/internal/store"
)

// Handler is the HTTP handler for all /api/v1/* read endpoints.
// It reads alert state from the engine and history from the event log.
type Handler struct {
	engine  *alerts.Engine
	logs    *store.Store
	started time.Time
	mux     *http.ServeMux
}

// New creates a Handler wired to the engine and its event log and registers
// all routes.
func New(engine *alerts.Engine, logs *store.Store) http.Handler {
	h := &Handler{
		engine:  engine,
		logs:    logs,
		started: time.Now(),
		mux:     http.NewServeMux(),
	}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/alert", h.alert)
	h.mux.HandleFunc("/api/v1/events", h.events)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// BuildStatus returns the active alert, with diagnostics, as of now.
// Exported so the WebSocket hub can send the same payload on connect.
func BuildStatus(engine *alerts.Engine, now time.Time) StatusResponse {
	resp := StatusResponse{GeneratedAt: now.UTC().Format(time.RFC3339)}

	a, ok := engine.Active()
	if !ok {
		return resp
	}
	cfg := engine.Config()
	resp.Active = true
	resp.Alert = &AlertResponse{
		ID:                a.ID,
		Severity:          a.Severity.String(),
		StartTime:         a.StartTime.UTC().Format(time.RFC3339),
		LastNotifiedTime:  a.LastNotifiedTime.UTC().Format(time.RFC3339),
		NextRepeatTime:    a.LastNotifiedTime.Add(cfg.RepeatIntervals.For(a.Severity)).UTC().Format(time.RFC3339),
		SkipLevelDeadline: a.SkipLevelDeadline.UTC().Format(time.RFC3339),
		Trigger: SampleResponse{
			LatencyMillis: a.Trigger.LatencyMillis,
			FailureRate:   a.Trigger.FailureRate,
		},
		Diagnostics: computeDiagnostics(a, cfg, now),
	}
	return resp
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health: engine state and event log size.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := HealthResponse{
		State:            "ok",
		ActiveSeverity:   "none",
		EventLogEntries:  h.logs.Len(),
		RetentionHours:   h.logs.Retention().Hours(),
		EscalationPolicy: h.engine.Config().EscalationPolicy,
		UptimeSeconds:    time.Since(h.started).Seconds(),
	}
	if a, ok := h.engine.Active(); ok {
		resp.State = "alerting"
		resp.ActiveSeverity = a.Severity.String()
	}
	jsonResp(w, http.StatusOK, resp)
}

// alert returns GET /api/v1/alert: the active alert, if any.
func (h *Handler) alert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, BuildStatus(h.engine, time.Now()))
}

// events returns GET /api/v1/events: the retained event log, oldest first.
// Optional query parameters: since (RFC3339) and kind.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	var entries []store.Entry
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			jsonErr(w, http.StatusBadRequest, "since: expected RFC3339 timestamp")
			return
		}
		entries = h.logs.Since(since)
	} else {
		entries = h.logs.List()
	}

	kind := q.Get("kind")
	out := make([]EventResponse, 0, len(entries))
	for _, e := range entries {
		if kind != "" && e.Kind != kind {
			continue
		}
		out = append(out, EventResponse{
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
			Kind:      e.Kind,
			Severity:  e.Severity.String(),
			Message:   e.Message,
		})
	}
	jsonResp(w, http.StatusOK, out)
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
