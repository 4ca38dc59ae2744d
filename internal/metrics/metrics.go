// Package metrics exposes Prometheus instrumentation for the proxy.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the proxy and its upstreams.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
	sunIntensity     prometheus.Gauge
}

// New creates and registers all collectors on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		upstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_requests_total",
				Help: "Outbound requests to third-party APIs by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		upstreamLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "upstream_request_latency_ms",
				Help:    "Latency of outbound requests to third-party APIs in milliseconds",
				Buckets: []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
			},
			[]string{"provider"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Proxy requests by route and response status",
			},
			[]string{"route", "status"},
		),
		sunIntensity: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sun_light_intensity",
				Help: "Most recently computed directional light intensity",
			},
		),
	}
}

// ObserveUpstream records one outbound attempt.
func (m *Metrics) ObserveUpstream(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(provider, outcome).Inc()
	m.upstreamLatency.WithLabelValues(provider).Observe(float64(elapsed.Microseconds()) / 1000.0)
}

// ObserveRequest records one proxied request.
func (m *Metrics) ObserveRequest(route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) SetSunIntensity(v float64) {
	if m == nil {
		return
	}
	m.sunIntensity.Set(v)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
