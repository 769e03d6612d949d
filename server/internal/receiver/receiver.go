package receiver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/obsidianstack/alertd/pkg/types"
	"github.com/obsidianstack/alertd/server/internal/source"
)

// maxBodyBytes bounds a pushed sample body.
const maxBodyBytes = 4 << 10

// Receiver accepts samples pushed over HTTP and hands the newest one to the
// monitoring loop. It implements both http.Handler and source.Source.
type Receiver struct {
	mu     sync.Mutex
	latest *types.MetricSample
}

var _ source.Source = (*Receiver)(nil)

// New creates an empty Receiver.
func New() *Receiver {
	return &Receiver{}
}

// ServeHTTP handles POST /api/v1/samples with a JSON body
// {"latency_ms": <int>, "failure_rate": <float>}.
func (r *Receiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	var s types.MetricSample
	if err := dec.Decode(&s); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid sample: "+err.Error())
		return
	}
	if err := s.Validate(); err != nil {
		slog.Warn("receiver: rejected malformed sample", "err", err)
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	r.mu.Lock()
	r.latest = &s
	r.mu.Unlock()

	w.WriteHeader(http.StatusAccepted)
}

// Next returns the newest pushed sample and clears it, so each push is seen by
// at most one tick. It returns source.ErrNoSample when nothing arrived since
// the previous call.
func (r *Receiver) Next(ctx context.Context) (types.MetricSample, error) {
	if err := ctx.Err(); err != nil {
		return types.MetricSample{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latest == nil {
		return types.MetricSample{}, source.ErrNoSample
	}
	s := *r.latest
	r.latest = nil
	return s, nil
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
