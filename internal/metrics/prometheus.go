// Package metrics provides a Prometheus registry mirroring the Analytics
// Aggregator's counters for external scraping.
//
// Grounded in the teacher's internal/metrics package: a private
// prometheus.Registry (not the global default) plus the Go/process
// collectors, trimmed to the handful of counters this gateway's stats
// model actually tracks. This registry is a read-only observer of C5 — it
// never feeds back into dispatch decisions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the exported counters.
type Registry struct {
	reg *prometheus.Registry

	requestsTotal *prometheus.CounterVec
	tokensTotal   *prometheus.CounterVec
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	errorsTotal   *prometheus.CounterVec
}

// New builds a private Prometheus registry and registers every gateway metric.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	r := &Registry{
		reg: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of requests served, labeled by serving provider and outcome.",
		}, []string{"provider", "outcome"}),
		tokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_tokens_total",
			Help: "Total tokens consumed, labeled by serving provider and direction.",
		}, []string{"provider", "direction"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_cache_hits_total",
			Help: "Total prompt cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_cache_misses_total",
			Help: "Total prompt cache misses.",
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_errors_total",
			Help: "Total dispatch failures, labeled by error kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(r.requestsTotal, r.tokensTotal, r.cacheHits, r.cacheMisses, r.errorsTotal)
	return r
}

// ObserveCacheHit records a cache hit and the request it satisfied.
func (r *Registry) ObserveCacheHit(provider string, inputTokens, outputTokens int) {
	r.cacheHits.Inc()
	r.requestsTotal.WithLabelValues(provider, "success").Inc()
	r.tokensTotal.WithLabelValues(provider, "input").Add(float64(inputTokens))
	r.tokensTotal.WithLabelValues(provider, "output").Add(float64(outputTokens))
}

// ObserveCacheMiss records a cache miss.
func (r *Registry) ObserveCacheMiss() { r.cacheMisses.Inc() }

// ObserveSuccess records a successful provider dispatch.
func (r *Registry) ObserveSuccess(provider string, inputTokens, outputTokens int) {
	r.requestsTotal.WithLabelValues(provider, "success").Inc()
	r.tokensTotal.WithLabelValues(provider, "input").Add(float64(inputTokens))
	r.tokensTotal.WithLabelValues(provider, "output").Add(float64(outputTokens))
}

// ObserveFailure records an exhausted dispatch.
func (r *Registry) ObserveFailure(provider, kind string) {
	r.requestsTotal.WithLabelValues(provider, "failure").Inc()
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// Handler serves the registry in the Prometheus text exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
