package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/obsidianstack/alertd/pkg/types"
	"github.com/obsidianstack/alertd/server/internal/alerts"
)

// Recorder turns alert events and samples into metrics.
type Recorder struct {
	events       *prometheus.CounterVec
	active       *prometheus.GaugeVec
	latency      prometheus.Gauge
	failureRate  prometheus.Gauge
	samples      prometheus.Counter
	sourceErrors prometheus.Counter
}

// New creates a Recorder and registers its collectors with reg. logLen, when
// non-nil, backs the event log size gauge.
func New(reg prometheus.Registerer, logLen func() int) *Recorder {
	r := &Recorder{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alertd_events_total",
				Help: "Alert events recorded, by kind and severity.",
			},
			[]string{"kind", "severity"},
		),
		active: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "alertd_active_alert",
				Help: "1 for the severity of the active alert, 0 otherwise.",
			},
			[]string{"severity"},
		),
		latency: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alertd_sample_latency_milliseconds",
			Help: "Latency of the most recent sample.",
		}),
		failureRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alertd_sample_failure_ratio",
			Help: "Failure rate of the most recent sample, 0 to 1.",
		}),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertd_samples_total",
			Help: "Samples handed to the alert engine.",
		}),
		sourceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertd_source_errors_total",
			Help: "Ticks skipped because the metric source failed.",
		}),
	}

	// Pre-create every series so dashboards see zeros before the first alert.
	for _, sev := range types.Tracked {
		r.active.WithLabelValues(sev.String())
	}

	reg.MustRegister(r.events, r.active, r.latency, r.failureRate, r.samples, r.sourceErrors)
	if logLen != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "alertd_event_log_entries",
				Help: "Entries currently retained in the event log.",
			},
			func() float64 { return float64(logLen()) },
		))
	}
	return r
}

// Publish implements alerts.Sink.
func (r *Recorder) Publish(ev alerts.Event) {
	r.events.WithLabelValues(string(ev.Kind), ev.Severity.String()).Inc()

	switch ev.Kind {
	case alerts.KindTriggered, alerts.KindEscalated:
		r.setActive(ev.Severity)
	case alerts.KindResolved:
		r.setActive(types.None)
	}
}

// ObserveSample records a sample that reached the engine.
func (r *Recorder) ObserveSample(s types.MetricSample) {
	r.samples.Inc()
	r.latency.Set(float64(s.LatencyMillis))
	r.failureRate.Set(s.FailureRate)
}

// ObserveSourceError counts a tick lost to a source failure.
func (r *Recorder) ObserveSourceError() {
	r.sourceErrors.Inc()
}

func (r *Recorder) setActive(sev types.Severity) {
	for _, t := range types.Tracked {
		v := 0.0
		if t == sev {
			v = 1
		}
		r.active.WithLabelValues(t.String()).Set(v)
	}
}
