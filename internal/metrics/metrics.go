// Package metrics exposes Prometheus counters for webhook traffic and
// pipeline runs. All recording methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Namespace prefixes every metric name.
	Namespace = "fplab"
)

// Run outcomes.
const (
	OutcomeSuccess    = "success"
	OutcomeNoSchedule = "no_gameweeks"
	OutcomeNoArticle  = "no_article"
	OutcomeNoSummary  = "summary_failed"
	OutcomeCancelled  = "cancelled"
)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	UpdatesReceived  prometheus.Counter
	UpdatesDuplicate prometheus.Counter
	UpdatesRejected  *prometheus.CounterVec

	RunsTotal          *prometheus.CounterVec
	RunDurationSeconds prometheus.Histogram
	RunsCoalesced      prometheus.Counter

	MessagesSent *prometheus.CounterVec
}

// New creates and registers all metrics, plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	m := &Metrics{registry: reg}

	m.initWebhookMetrics(factory)
	m.initRunMetrics(factory)

	return m
}

func (m *Metrics) initWebhookMetrics(factory promauto.Factory) {
	m.UpdatesReceived = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "webhook",
		Name:      "updates_received_total",
		Help:      "Updates accepted by the webhook endpoint",
	})

	m.UpdatesDuplicate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "webhook",
		Name:      "updates_duplicate_total",
		Help:      "Updates dropped because their id was seen recently",
	})

	m.UpdatesRejected = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "webhook",
			Name:      "updates_rejected_total",
			Help:      "Requests rejected by the webhook endpoint",
		},
		[]string{"reason"},
	)
}

func (m *Metrics) initRunMetrics(factory promauto.Factory) {
	m.RunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Completed fetch-and-summarize runs",
		},
		[]string{"outcome"},
	)

	m.RunDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "pipeline",
		Name:      "run_duration_seconds",
		Help:      "Duration of fetch-and-summarize runs",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 8), // 1s to ~2min
	})

	m.RunsCoalesced = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "pipeline",
		Name:      "runs_coalesced_total",
		Help:      "Requests that joined a run already in flight",
	})

	m.MessagesSent = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "bot",
			Name:      "messages_sent_total",
			Help:      "Chat messages sent, by result",
		},
		[]string{"result"},
	)
}

// UpdateReceived counts an accepted update.
func (m *Metrics) UpdateReceived() {
	if m == nil {
		return
	}
	m.UpdatesReceived.Inc()
}

// UpdateDuplicate counts a replayed update.
func (m *Metrics) UpdateDuplicate() {
	if m == nil {
		return
	}
	m.UpdatesDuplicate.Inc()
}

// UpdateRejected counts a rejected request.
func (m *Metrics) UpdateRejected(reason string) {
	if m == nil {
		return
	}
	m.UpdatesRejected.WithLabelValues(reason).Inc()
}

// RunFinished records the outcome and duration of one pipeline run.
func (m *Metrics) RunFinished(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDurationSeconds.Observe(d.Seconds())
}

// RunCoalesced counts a caller that shared an in-flight run.
func (m *Metrics) RunCoalesced() {
	if m == nil {
		return
	}
	m.RunsCoalesced.Inc()
}

// MessageSent counts a chat message by whether it was delivered.
func (m *Metrics) MessageSent(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.MessagesSent.WithLabelValues(result).Inc()
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
