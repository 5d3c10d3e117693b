package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// iMessage MCP metrics - using explicit registration
var (
	// Request counters
	RequestsTotal *prometheus.CounterVec

	// Tool call counters
	ToolCallsTotal *prometheus.CounterVec

	// Tool duration histogram
	ToolDuration *prometheus.HistogramVec

	// Bridge round-trip latency
	BridgeLatency *prometheus.HistogramVec
)

// init creates and registers all metrics with the default registry
func init() {
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imsg",
			Subsystem: "mcp",
			Name:      "requests_total",
			Help:      "Total number of MCP requests",
		},
		[]string{"method", "status"},
	)

	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imsg",
			Subsystem: "mcp",
			Name:      "tool_calls_total",
			Help:      "Total tool invocations",
		},
		[]string{"tool_name", "status"},
	)

	ToolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "imsg",
			Subsystem: "mcp",
			Name:      "tool_duration_seconds",
			Help:      "Tool execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"tool_name"},
	)

	BridgeLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "imsg",
			Subsystem: "mcp",
			Name:      "bridge_latency_seconds",
			Help:      "iMessage bridge request latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"operation"},
	)

	prometheus.MustRegister(
		RequestsTotal,
		ToolCallsTotal,
		ToolDuration,
		BridgeLatency,
	)
}

// RecordRequest increments the HTTP request counter
func RecordRequest(method, status string) {
	RequestsTotal.WithLabelValues(method, status).Inc()
}

// RecordToolCall increments the tool invocation counter
func RecordToolCall(toolName, status string) {
	ToolCallsTotal.WithLabelValues(toolName, status).Inc()
}

// ObserveToolDuration records a tool execution duration
func ObserveToolDuration(toolName string, seconds float64) {
	ToolDuration.WithLabelValues(toolName).Observe(seconds)
}

// ObserveBridgeLatency records a bridge round-trip duration
func ObserveBridgeLatency(operation string, seconds float64) {
	BridgeLatency.WithLabelValues(operation).Observe(seconds)
}
