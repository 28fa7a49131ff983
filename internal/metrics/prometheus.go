package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "waitlist"

// PrometheusRecorder exports metrics through a Prometheus registry.
type PrometheusRecorder struct {
	registry      *prometheus.Registry
	subscriptions *prometheus.CounterVec
	listRequests  prometheus.Counter
	listCache     *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
}

// NewPrometheus registers the waitlist collectors, plus Go runtime and
// process collectors, on a fresh registry.
func NewPrometheus() *PrometheusRecorder {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_total",
			Help:      "Signup attempts by outcome.",
		}, []string{"outcome"}),
		listRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_requests_total",
			Help:      "Subscriber list requests.",
		}),
		listCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "list_cache",
			Name:      "lookups_total",
			Help:      "Subscriber list cache lookups by result.",
		}, []string{"result"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Latency of subscriber store operations.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"op"}),
	}

	r.registry.MustRegister(
		r.subscriptions,
		r.listRequests,
		r.listCache,
		r.storeDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// IncSubscription increments the signup counter for outcome.
func (r *PrometheusRecorder) IncSubscription(outcome string) {
	r.subscriptions.WithLabelValues(outcome).Inc()
}

// IncListRequest increments the list request counter.
func (r *PrometheusRecorder) IncListRequest() {
	r.listRequests.Inc()
}

// IncListCacheHit records a cache hit.
func (r *PrometheusRecorder) IncListCacheHit() {
	r.listCache.WithLabelValues("hit").Inc()
}

// IncListCacheMiss records a cache miss.
func (r *PrometheusRecorder) IncListCacheMiss() {
	r.listCache.WithLabelValues("miss").Inc()
}

// ObserveStoreDuration records store latency.
func (r *PrometheusRecorder) ObserveStoreDuration(op string, duration time.Duration) {
	r.storeDuration.WithLabelValues(op).Observe(duration.Seconds())
}
