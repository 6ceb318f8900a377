package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mfateev/sandbox-agent/internal/models"
)

// MetricsCollector holds all Prometheus metrics for the agent.
// Uses a custom registry, no global state.
type MetricsCollector struct {
	Registry *prometheus.Registry

	// LLM metrics.
	LLMRequestsTotal   *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec
	LLMTokensUsed      *prometheus.CounterVec

	// Tool execution metrics.
	ToolExecutionsTotal   *prometheus.CounterVec
	ToolExecutionDuration *prometheus.HistogramVec

	// Session metrics.
	LoopIterations prometheus.Histogram
	SessionsTotal  *prometheus.CounterVec
}

// NewMetricsCollector creates a MetricsCollector with all metrics registered
// on a custom prometheus.Registry.
func NewMetricsCollector() *MetricsCollector {
	reg := prometheus.NewRegistry()

	m := &MetricsCollector{
		Registry: reg,

		LLMRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agent",
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Total model calls.",
		}, []string{"provider", "model", "status"}),

		LLMRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agent",
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "Model call duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"provider", "model"}),

		LLMTokensUsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agent",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Total tokens reported by the provider.",
		}, []string{"provider", "model", "direction"}),

		ToolExecutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agent",
			Subsystem: "tool",
			Name:      "executions_total",
			Help:      "Total tool executions.",
		}, []string{"tool", "status"}),

		ToolExecutionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agent",
			Subsystem: "tool",
			Name:      "execution_duration_seconds",
			Help:      "Tool execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),

		LoopIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agent",
			Subsystem: "loop",
			Name:      "iterations",
			Help:      "Model passes per session.",
			Buckets:   []float64{1, 2, 3, 5, 8, 12, 16, 20},
		}),

		SessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agent",
			Subsystem: "loop",
			Name:      "sessions_total",
			Help:      "Sessions by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.LLMRequestsTotal,
		m.LLMRequestDuration,
		m.LLMTokensUsed,
		m.ToolExecutionsTotal,
		m.ToolExecutionDuration,
		m.LoopIterations,
		m.SessionsTotal,
	)

	return m
}

// RecordToolExecution counts one tool call and its duration.
func (m *MetricsCollector) RecordToolExecution(tool, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.ToolExecutionsTotal.WithLabelValues(tool, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// RecordLLMCall counts one model call, its duration and token usage.
func (m *MetricsCollector) RecordLLMCall(provider, model, status string, d time.Duration, usage models.TokenUsage) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(provider, model, status).Inc()
	m.LLMRequestDuration.WithLabelValues(provider, model).Observe(d.Seconds())
	if usage.PromptTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "input").Add(float64(usage.PromptTokens))
	}
	if usage.CompletionTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "output").Add(float64(usage.CompletionTokens))
	}
	if usage.CachedTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "cached").Add(float64(usage.CachedTokens))
	}
}

// RecordSession records how a session ended and how many passes it took.
func (m *MetricsCollector) RecordSession(outcome string, iterations int) {
	if m == nil {
		return
	}
	m.SessionsTotal.WithLabelValues(outcome).Inc()
	m.LoopIterations.Observe(float64(iterations))
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node_exporter textfile collector.
func (m *MetricsCollector) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
