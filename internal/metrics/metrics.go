// Package metrics exposes prometheus collectors for the seating engine.
// A nil *Metrics is valid and records nothing, so callers never need to
// check whether metrics are enabled.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "seating"

type Metrics struct {
	gatherer prometheus.Gatherer

	operations  *prometheus.CounterVec
	importRows  *prometheus.CounterVec
	layoutBuild prometheus.Histogram
	layoutWait  prometheus.Gauge
	cache       *prometheus.CounterVec
	events      *prometheus.CounterVec
}

// New registers every collector on reg.  Passing a fresh
// prometheus.NewRegistry keeps tests isolated from the default registry.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Seat assignment operations by kind and outcome.",
		}, []string{"op", "outcome"}),
		importRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Imported person rows by result.",
		}, []string{"result"}),
		layoutBuild: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_build_seconds",
			Help:      "Latency of layout reconciliation including store reads.",
			Buckets: []float64{
				0.001, 0.002, 0.005,
				0.01, 0.02, 0.05,
				0.1, 0.2, 0.5, 1,
			},
		}),
		layoutWait: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "waiting_persons",
			Help:      "Persons in the waiting area at the last layout build.",
		}),
		cache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_cache_total",
			Help:      "Layout cache lookups by result.",
		}, []string{"result"}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Seating events handed to the broker by result.",
		}, []string{"result"}),
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Operation counts one engine call.  outcome is "ok" or an error kind.
func (m *Metrics) Operation(op, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) ImportRows(success, skipped, failed int) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues("success").Add(float64(success))
	m.importRows.WithLabelValues("skipped").Add(float64(skipped))
	m.importRows.WithLabelValues("failed").Add(float64(failed))
}

// ObserveLayout records a finished layout build.
func (m *Metrics) ObserveLayout(d time.Duration, waiting int) {
	if m == nil {
		return
	}
	m.layoutBuild.Observe(d.Seconds())
	m.layoutWait.Set(float64(waiting))
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cache.WithLabelValues("hit").Inc()
		return
	}
	m.cache.WithLabelValues("miss").Inc()
}

func (m *Metrics) EventPublished(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.events.WithLabelValues("error").Inc()
		return
	}
	m.events.WithLabelValues("ok").Inc()
}
