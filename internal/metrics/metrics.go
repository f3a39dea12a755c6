package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the TA service.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec   // labels: method, route, status
	HTTPDuration *prometheus.HistogramVec // labels: method, route

	ExchangeFetchDur *prometheus.HistogramVec // labels: exchange, outcome
	Evaluations      *prometheus.CounterVec   // labels: outcome
	CacheLookups     *prometheus.CounterVec   // labels: result=hit|miss|error

	AnalysesStored  *prometheus.CounterVec // labels: outcome
	EventsPublished *prometheus.CounterVec // labels: outcome
	AlertsSent      prometheus.Counter
	WSClients       prometheus.Gauge
	WatchCycleDur   prometheus.Histogram
}

// New creates all metrics on a private registry, together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ta_http_requests_total",
			Help: "Total HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ta_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		ExchangeFetchDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ta_exchange_fetch_duration_seconds",
			Help:    "Candle fetch latency per exchange",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"exchange", "outcome"}),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ta_evaluations_total",
			Help: "Indicator evaluations by outcome",
		}, []string{"outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ta_candle_cache_lookups_total",
			Help: "Candle cache lookups by result",
		}, []string{"result"}),

		AnalysesStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ta_analyses_stored_total",
			Help: "Analysis store writes by outcome",
		}, []string{"outcome"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ta_events_published_total",
			Help: "Analysis events published to Kafka by outcome",
		}, []string{"outcome"}),
		AlertsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ta_alerts_sent_total",
			Help: "High-score push alerts sent",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ta_ws_clients",
			Help: "Connected websocket clients",
		}),
		WatchCycleDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ta_watch_cycle_duration_seconds",
			Help:    "Duration of one watchlist analysis cycle",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.ExchangeFetchDur,
		m.Evaluations,
		m.CacheLookups,
		m.AnalysesStored,
		m.EventsPublished,
		m.AlertsSent,
		m.WSClients,
		m.WatchCycleDur,
	)

	return m
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveFetch records one exchange fetch. A nil receiver is a no-op.
func (m *Metrics) ObserveFetch(exchange string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.ExchangeFetchDur.WithLabelValues(exchange, outcome(err)).Observe(time.Since(start).Seconds())
}

// ObserveEvaluation counts one Evaluate call.
func (m *Metrics) ObserveEvaluation(err error) {
	if m == nil {
		return
	}
	m.Evaluations.WithLabelValues(outcome(err)).Inc()
}

// ObserveCache counts a cache lookup; result is hit, miss or error.
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveStore counts an analysis store write.
func (m *Metrics) ObserveStore(err error) {
	if m == nil {
		return
	}
	m.AnalysesStored.WithLabelValues(outcome(err)).Inc()
}

// ObservePublish counts a Kafka publish.
func (m *Metrics) ObservePublish(err error) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(outcome(err)).Inc()
}

// ObserveAlert counts a sent alert.
func (m *Metrics) ObserveAlert() {
	if m == nil {
		return
	}
	m.AlertsSent.Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
