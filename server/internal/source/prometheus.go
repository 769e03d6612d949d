package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/prometheus/common/model"

	"github.com/obsidianstack/alertd/pkg/types"
	"github.com/obsidianstack/alertd/server/internal/config"
)

// Prometheus builds a sample from two PromQL instant queries: one yielding
// latency in milliseconds and one yielding the failure ratio.
type Prometheus struct {
	cfg    config.PrometheusSourceConfig
	client *http.Client
}

// NewPrometheus returns a Prometheus source for cfg.
func NewPrometheus(cfg config.PrometheusSourceConfig) *Prometheus {
	return &Prometheus{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *Prometheus) Next(ctx context.Context) (types.MetricSample, error) {
	latency, err := p.query(ctx, p.cfg.LatencyQuery)
	if err != nil {
		slog.Warn("source: prometheus latency query failed", "err", err)
		return types.MetricSample{}, fmt.Errorf("prometheus latency: %w", err)
	}
	rate, err := p.query(ctx, p.cfg.FailureRateQuery)
	if err != nil {
		slog.Warn("source: prometheus failure rate query failed", "err", err)
		return types.MetricSample{}, fmt.Errorf("prometheus failure rate: %w", err)
	}
	return types.MetricSample{
		LatencyMillis: toMillis(latency),
		FailureRate:   rate,
	}, nil
}

// toMillis rounds f to an int64, saturating at the int64 range instead of
// relying on an out-of-range float conversion.
func toMillis(f float64) int64 {
	f = math.Round(f)
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}

// queryResponse is the envelope of GET /api/v1/query.
type queryResponse struct {
	Status    string `json:"status"`
	ErrorType string `json:"errorType"`
	Error     string `json:"error"`
	Data      struct {
		ResultType model.ValueType `json:"resultType"`
		Result     json.RawMessage `json:"result"`
	} `json:"data"`
}

// query evaluates q and returns its single value. A vector result must hold
// at least one sample; the first one is used.
func (p *Prometheus) query(ctx context.Context, q string) (float64, error) {
	endpoint := strings.TrimRight(p.cfg.URL, "/") + "/api/v1/query?" + url.Values{"query": {q}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return 0, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if qr.Status != "success" {
		return 0, fmt.Errorf("query %q: %s: %s", q, qr.ErrorType, qr.Error)
	}

	var v model.SampleValue
	switch qr.Data.ResultType {
	case model.ValVector:
		var vec model.Vector
		if err := json.Unmarshal(qr.Data.Result, &vec); err != nil {
			return 0, fmt.Errorf("decode vector: %w", err)
		}
		if len(vec) == 0 {
			return 0, fmt.Errorf("query %q returned no samples", q)
		}
		v = vec[0].Value
	case model.ValScalar:
		var sc model.Scalar
		if err := json.Unmarshal(qr.Data.Result, &sc); err != nil {
			return 0, fmt.Errorf("decode scalar: %w", err)
		}
		v = sc.Value
	default:
		return 0, fmt.Errorf("query %q: unsupported result type %q", q, qr.Data.ResultType)
	}

	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("query %q returned %v", q, f)
	}
	return f, nil
}
