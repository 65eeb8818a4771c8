// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shrimpli"

// Lookup operations used as the "operation" label.
const (
	OperationRedirect = "redirect"
	OperationStats    = "stats"
)

type Metrics struct {
	registry *prometheus.Registry

	URLsShortened   prometheus.Counter
	Redirects       prometheus.Counter
	LookupsNotFound *prometheus.CounterVec
	Collisions      prometheus.Counter
	RateLimited     prometheus.Counter
}

// New registers the collectors on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		URLsShortened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "urls_shortened_total",
			Help:      "Number of URLs shortened.",
		}),
		Redirects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Number of successful redirects.",
		}),
		LookupsNotFound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_not_found_total",
			Help:      "Number of lookups for unknown short codes.",
		}, []string{"operation"}),
		Collisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "short_code_collisions_total",
			Help:      "Number of generated short codes discarded because they were taken.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Number of shorten requests rejected by the rate limiter.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.URLsShortened,
		m.Redirects,
		m.LookupsNotFound,
		m.Collisions,
		m.RateLimited,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
