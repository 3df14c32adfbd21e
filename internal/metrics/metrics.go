// Package metrics exposes the tracker's Prometheus instrumentation.
//
// A nil *Metrics is valid and records nothing, so components can take one
// unconditionally.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dreamware/loctrack/internal/storage"
	"github.com/dreamware/loctrack/internal/tracker"
)

const namespace = "tracker"

// Metrics holds the collectors registered for one process.
type Metrics struct {
	registry *prometheus.Registry

	connsAccepted prometheus.Counter
	connsRejected prometheus.Counter
	panics        prometheus.Counter
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		connsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_accepted_total",
			Help:      "Connections accepted and queued for a worker",
		}),

		connsRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_rejected_total",
			Help:      "Connections turned away with 503 because the queue was full",
		}),

		panics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "panics_recovered_total",
			Help:      "Handler panics recovered by the worker pool",
		}),

		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests handled by route and status code",
		}, []string{"route", "status"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time spent in the route handler",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// WatchState exports the state's counters. Values are read at scrape time.
func (m *Metrics) WatchState(s *tracker.State) {
	if m == nil {
		return
	}
	factory := promauto.With(m.registry)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "history_length",
		Help:      "Reports currently held in the history",
	}, func() float64 { return float64(s.Stats().HistoryLen) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_total",
		Help:      "Location updates recorded",
	}, func() float64 { return float64(s.Stats().Updates) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "history_clears_total",
		Help:      "History clears",
	}, func() float64 { return float64(s.Stats().Clears) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persist_failures_total",
		Help:      "History snapshots the backend failed to save",
	}, func() float64 { return float64(s.Stats().PersistFailures) })
}

// WatchStore exports the snapshot backend's save count and document size.
func (m *Metrics) WatchStore(st storage.SnapshotStore) {
	if m == nil {
		return
	}
	factory := promauto.With(m.registry)

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshot_saves_total",
		Help:      "History snapshots written by the backend since open",
	}, func() float64 { return float64(st.Stats().Saves) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "snapshot_bytes",
		Help:      "Size of the last saved history snapshot",
	}, func() float64 { return float64(st.Stats().Bytes) })
}

// ConnAccepted counts a queued connection.
func (m *Metrics) ConnAccepted() {
	if m == nil {
		return
	}
	m.connsAccepted.Inc()
}

// ConnRejected counts a connection refused for back-pressure.
func (m *Metrics) ConnRejected() {
	if m == nil {
		return
	}
	m.connsRejected.Inc()
}

// PanicRecovered counts a recovered handler panic.
func (m *Metrics) PanicRecovered() {
	if m == nil {
		return
	}
	m.panics.Inc()
}

// ObserveRequest records one routed request.
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
