// Package metrics provides Prometheus metrics export for the chat pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "wingman"
	subsystem = "chat"
)

// PrometheusExporter exports chat, tool and LLM metrics in Prometheus format.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Chat metrics
	chatLatency  *prometheus.HistogramVec
	chatRequests *prometheus.CounterVec
	chatActive   prometheus.Gauge
	historyTurns prometheus.Histogram

	// Tool call metrics
	toolCalls   *prometheus.CounterVec
	toolLatency *prometheus.HistogramVec
	toolErrors  *prometheus.CounterVec

	// LLM metrics
	llmTokensUsed *prometheus.CounterVec
	llmLatency    *prometheus.HistogramVec
	llmErrors     *prometheus.CounterVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.chatLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_latency_seconds",
			Help:      "Chat request latency in seconds, tool round included",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"model"},
	)

	e.chatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Total number of chat requests by outcome",
		},
		[]string{"model", "outcome"},
	)

	e.chatActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_requests",
			Help:      "Number of chat requests in flight",
		},
	)

	e.historyTurns = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "history_messages",
			Help:      "Number of stored messages replayed to the model per request",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	e.toolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tool_calls_total",
			Help:      "Total number of tool calls",
		},
		[]string{"tool_name", "status"},
	)

	e.toolLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tool_latency_seconds",
			Help:      "Tool call latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"tool_name"},
	)

	e.toolErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tool_errors_total",
			Help:      "Total number of tool errors",
		},
		[]string{"tool_name", "error_type"},
	)

	e.llmTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"model", "token_type"},
	)

	e.llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "llm_latency_seconds",
			Help:      "LLM request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"model", "phase"},
	)

	e.llmErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "llm_errors_total",
			Help:      "Total number of failed LLM requests",
		},
		[]string{"model", "phase"},
	)

	registry.MustRegister(
		e.chatLatency,
		e.chatRequests,
		e.chatActive,
		e.historyTurns,
		e.toolCalls,
		e.toolLatency,
		e.toolErrors,
		e.llmTokensUsed,
		e.llmLatency,
		e.llmErrors,
	)

	return e
}

// RecordChatRequest records a finished chat request.
// outcome is one of success, invalid_input, llm_error, internal_error.
func (e *PrometheusExporter) RecordChatRequest(model, outcome string, latency time.Duration) {
	e.chatRequests.WithLabelValues(model, outcome).Inc()
	e.chatLatency.WithLabelValues(model).Observe(latency.Seconds())
}

// ChatStarted increments the in-flight gauge; call the returned func when done.
func (e *PrometheusExporter) ChatStarted() func() {
	e.chatActive.Inc()
	return e.chatActive.Dec
}

// RecordHistoryMessages records how many stored messages were replayed.
func (e *PrometheusExporter) RecordHistoryMessages(count int) {
	e.historyTurns.Observe(float64(count))
}

// RecordToolCall records a tool call metric.
func (e *PrometheusExporter) RecordToolCall(toolName string, latency time.Duration, success bool, errorType string) {
	status := "success"
	if !success {
		status = "error"
		if errorType != "" {
			e.toolErrors.WithLabelValues(toolName, errorType).Inc()
		}
	}

	e.toolCalls.WithLabelValues(toolName, status).Inc()
	e.toolLatency.WithLabelValues(toolName).Observe(latency.Seconds())
}

// RecordLLMCall records latency and token usage of one completion.
// phase is "initial" for the tool-enabled call and "final" for the follow-up.
func (e *PrometheusExporter) RecordLLMCall(model, phase string, latency time.Duration, promptTokens, completionTokens int, err error) {
	e.llmLatency.WithLabelValues(model, phase).Observe(latency.Seconds())
	if err != nil {
		e.llmErrors.WithLabelValues(model, phase).Inc()
		return
	}
	e.llmTokensUsed.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	e.llmTokensUsed.WithLabelValues(model, "completion").Add(float64(completionTokens))
}

// Handler returns an HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ServeHTTP implements http.Handler for the metrics endpoint.
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.Handler().ServeHTTP(w, r)
}

// GetRegistry returns the Prometheus registry.
func (e *PrometheusExporter) GetRegistry() *prometheus.Registry {
	return e.registry
}
