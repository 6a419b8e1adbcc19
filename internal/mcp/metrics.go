package mcp

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the tool server's Prometheus collectors in a private
// registry, so several servers can coexist in one process.
type Metrics struct {
	Registry *prometheus.Registry

	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	requests     *prometheus.CounterVec
	sessions     prometheus.Gauge
}

// NewMetrics registers the tool server metrics in a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		toolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revintel_tool_calls_total",
				Help: "Total tool calls by tool and outcome.",
			},
			[]string{"tool", "status"},
		),
		toolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "revintel_tool_duration_seconds",
				Help:    "Duration of tool calls.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revintel_rpc_requests_total",
				Help: "Total JSON-RPC requests by method.",
			},
			[]string{"method"},
		),
		sessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "revintel_http_sessions",
				Help: "Open streamable HTTP sessions.",
			},
		),
	}
}

// RecordToolCall records one tool call.
func (m *Metrics) RecordToolCall(tool string, failed bool, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if failed {
		status = "error"
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// RecordRequest counts one JSON-RPC request.
func (m *Metrics) RecordRequest(method string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method).Inc()
}

func (m *Metrics) setSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
