package receiver_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/obsidianstack/alertd/pkg/types"
	"github.com/obsidianstack/alertd/server/internal/receiver"
	"github.com/obsidianstack/alertd/server/internal/source"
)

func push(t *testing.T, rec *receiver.Receiver, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/api/v1/samples", strings.NewReader(body))
	w := httptest.NewRecorder()
	rec.ServeHTTP(w, req)
	return w
}

func TestPush_StoresSample(t *testing.T) {
	rec := receiver.New()
	w := push(t, rec, http.MethodPost, `{"latency_ms": 2500, "failure_rate": 0.01}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status: got %d, want 202 (body %s)", w.Code, w.Body)
	}

	got, err := rec.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	want := types.MetricSample{LatencyMillis: 2500, FailureRate: 0.01}
	if got != want {
		t.Errorf("Next: got %+v, want %+v", got, want)
	}
}

func TestNext_ConsumesOnce(t *testing.T) {
	rec := receiver.New()
	if _, err := rec.Next(context.Background()); !errors.Is(err, source.ErrNoSample) {
		t.Fatalf("Next on empty receiver: got %v, want ErrNoSample", err)
	}

	push(t, rec, http.MethodPost, `{"latency_ms": 10, "failure_rate": 0}`)
	if _, err := rec.Next(context.Background()); err != nil {
		t.Fatalf("first Next: %v", err)
	}
	if _, err := rec.Next(context.Background()); !errors.Is(err, source.ErrNoSample) {
		t.Errorf("second Next: got %v, want ErrNoSample", err)
	}
}

func TestNext_NewestPushWins(t *testing.T) {
	rec := receiver.New()
	push(t, rec, http.MethodPost, `{"latency_ms": 10, "failure_rate": 0}`)
	push(t, rec, http.MethodPost, `{"latency_ms": 20, "failure_rate": 0}`)

	got, err := rec.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got.LatencyMillis != 20 {
		t.Errorf("latency: got %d, want 20", got.LatencyMillis)
	}
}

func TestPush_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		code   int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"not json", http.MethodPost, "latency=5", http.StatusBadRequest},
		{"unknown field", http.MethodPost, `{"latency_ms": 5, "cpu": 3}`, http.StatusBadRequest},
		{"negative latency", http.MethodPost, `{"latency_ms": -5, "failure_rate": 0}`, http.StatusBadRequest},
		{"failure rate above one", http.MethodPost, `{"latency_ms": 5, "failure_rate": 2}`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := receiver.New()
			w := push(t, rec, tc.method, tc.body)
			if w.Code != tc.code {
				t.Errorf("status: got %d, want %d", w.Code, tc.code)
			}
			if _, err := rec.Next(context.Background()); !errors.Is(err, source.ErrNoSample) {
				t.Errorf("rejected push must not be stored, Next returned %v", err)
			}
		})
	}
}
