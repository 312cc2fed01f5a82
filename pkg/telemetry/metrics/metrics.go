// Package metrics exposes Prometheus instrumentation for both serving
// roles.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"relayhq/courier/pkg/config"
)

// Collector owns the registry and every Courier metric family.
//
// Metric families:
//   - <ns>_requests_total{method,status}: application requests served
//   - <ns>_request_duration_seconds{method}: application request latency
//   - <ns>_proxy_forwarded_total{vhost,backend}: proxied requests
//   - <ns>_proxy_errors_total{vhost,reason}: proxy failures
//   - <ns>_backend_up{vhost,backend}: last probe result per origin
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	forwardedTotal  *prometheus.CounterVec
	proxyErrors     *prometheus.CounterVec
	backendUp       *prometheus.GaugeVec
}

// NewCollector creates and registers every metric family. Passing a nil
// registry creates a private one, which keeps tests isolated.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "requests_total",
				Help:      "Total application requests served",
			},
			[]string{"method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "request_duration_seconds",
				Help:      "Application request handling latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		forwardedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "proxy_forwarded_total",
				Help:      "Requests forwarded to a backend",
			},
			[]string{"vhost", "backend"},
		),
		proxyErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "proxy_errors_total",
				Help:      "Proxy failures by reason",
			},
			[]string{"vhost", "reason"},
		),
		backendUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "backend_up",
				Help:      "Whether the last probe of a backend succeeded",
			},
			[]string{"vhost", "backend"},
		),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.forwardedTotal,
		c.proxyErrors,
		c.backendUp,
	)
	return c
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveRequest records one served application request.
func (c *Collector) ObserveRequest(method, status string, elapsed time.Duration) {
	c.requestsTotal.WithLabelValues(method, status).Inc()
	c.requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveForward records one request relayed to a backend.
func (c *Collector) ObserveForward(vhost, backend string) {
	c.forwardedTotal.WithLabelValues(vhost, backend).Inc()
}

// ObserveProxyError records a proxy failure. reason is one of "no_route",
// "no_backend", "dial", "relay".
func (c *Collector) ObserveProxyError(vhost, reason string) {
	c.proxyErrors.WithLabelValues(vhost, reason).Inc()
}

// SetBackendUp records a probe result for one origin.
func (c *Collector) SetBackendUp(vhost, backend string, up bool) {
	v := 0.0
	if up {
		v = 1.0
	}
	c.backendUp.WithLabelValues(vhost, backend).Set(v)
}
