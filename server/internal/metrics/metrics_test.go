package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsidianstack/alertd/pkg/types"
	"github.com/obsidianstack/alertd/server/internal/alerts"
)

func getCounterVecValue(cv *prometheus.CounterVec, labels ...string) float64 {
	m := &dto.Metric{}
	if err := cv.WithLabelValues(labels...).Write(m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func getGaugeVecValue(gv *prometheus.GaugeVec, labels ...string) float64 {
	m := &dto.Metric{}
	if err := gv.WithLabelValues(labels...).Write(m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

func getGaugeValue(g prometheus.Gauge) float64 {
	m := &dto.Metric{}
	if err := g.Write(m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

func event(kind alerts.Kind, sev types.Severity) alerts.Event {
	return alerts.Event{Kind: kind, Severity: sev, Time: time.Now()}
}

func TestPublish_CountsEvents(t *testing.T) {
	r := New(prometheus.NewRegistry(), nil)

	r.Publish(event(alerts.KindTriggered, types.P2))
	r.Publish(event(alerts.KindResent, types.P2))
	r.Publish(event(alerts.KindResent, types.P2))
	r.Publish(event(alerts.KindMalformed, types.None))

	assert.Equal(t, 1.0, getCounterVecValue(r.events, "triggered", "P2"))
	assert.Equal(t, 2.0, getCounterVecValue(r.events, "resent", "P2"))
	assert.Equal(t, 1.0, getCounterVecValue(r.events, "malformed_sample", "none"))
}

func TestPublish_TracksActiveSeverity(t *testing.T) {
	r := New(prometheus.NewRegistry(), nil)

	r.Publish(event(alerts.KindTriggered, types.P2))
	assert.Equal(t, 1.0, getGaugeVecValue(r.active, "P2"))
	assert.Equal(t, 0.0, getGaugeVecValue(r.active, "P0"))

	r.Publish(event(alerts.KindEscalated, types.P0))
	assert.Equal(t, 0.0, getGaugeVecValue(r.active, "P2"))
	assert.Equal(t, 1.0, getGaugeVecValue(r.active, "P0"))

	r.Publish(event(alerts.KindResolved, types.P0))
	for _, sev := range types.Tracked {
		assert.Equal(t, 0.0, getGaugeVecValue(r.active, sev.String()), sev.String())
	}
}

func TestObserveSample(t *testing.T) {
	r := New(prometheus.NewRegistry(), nil)
	r.ObserveSample(types.MetricSample{LatencyMillis: 1200, FailureRate: 0.04})
	r.ObserveSourceError()

	assert.Equal(t, 1200.0, getGaugeValue(r.latency))
	assert.InDelta(t, 0.04, getGaugeValue(r.failureRate), 1e-9)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.samples))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sourceErrors))
}

func TestHandler_ServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, func() int { return 7 })
	r.Publish(event(alerts.KindTriggered, types.P1))

	srv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	var b strings.Builder
	_, err = io.Copy(&b, resp.Body)
	require.NoError(t, err)
	body := b.String()

	for _, want := range []string{
		`alertd_events_total{kind="triggered",severity="P1"} 1`,
		`alertd_active_alert{severity="P1"} 1`,
		`alertd_active_alert{severity="P0"} 0`,
		`alertd_event_log_entries 7`,
	} {
		assert.Contains(t, body, want)
	}
}
