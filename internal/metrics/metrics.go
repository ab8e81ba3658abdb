// Package metrics collects tool-call and HTTP counters on a private
// prometheus registry and exposes them for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tool call status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics is safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	rateLimited  prometheus.Counter
}

// New builds a registry holding the tool metrics plus the Go runtime and
// process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_calls_total",
				Help: "Total number of tool invocations by tool and outcome.",
			},
			[]string{"tool", "status"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_call_duration_seconds",
				Help:    "Tool invocation latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Requests rejected by the per-client rate limiter.",
			},
		),
	}

	registry.MustRegister(
		m.toolCalls,
		m.toolDuration,
		m.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveToolCall records one invocation of tool.
func (m *Metrics) ObserveToolCall(tool, status string, d time.Duration) {
	m.toolCalls.WithLabelValues(tool, status).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// RecordRateLimited counts one rejected request.
func (m *Metrics) RecordRateLimited() {
	m.rateLimited.Inc()
}

// TrackRateLimitClients exports count as the http_rate_limit_clients gauge,
// sampled on every scrape. Only one source can be tracked per registry.
func (m *Metrics) TrackRateLimitClients(count func() int) error {
	return m.registry.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "http_rate_limit_clients",
			Help: "Clients currently tracked by the per-client rate limiter.",
		},
		func() float64 { return float64(count()) },
	))
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
