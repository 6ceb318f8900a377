package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mfateev/sandbox-agent/internal/llm"
	"github.com/mfateev/sandbox-agent/internal/models"
)

// InstrumentedClient wraps an llm.Client with metrics and tracing.
type InstrumentedClient struct {
	inner    llm.Client
	provider string
	metrics  *MetricsCollector
	tracer   trace.Tracer
}

// NewInstrumentedClient wraps inner. metrics and tracer may be nil.
func NewInstrumentedClient(inner llm.Client, provider string, metrics *MetricsCollector, tracer trace.Tracer) *InstrumentedClient {
	if tracer == nil {
		tracer = (*TracerSetup)(nil).Tracer()
	}
	return &InstrumentedClient{
		inner:    inner,
		provider: provider,
		metrics:  metrics,
		tracer:   tracer,
	}
}

// Provider returns the wrapped backend name.
func (c *InstrumentedClient) Provider() string { return c.provider }

// Call forwards to the wrapped client inside an llm.call span.
func (c *InstrumentedClient) Call(ctx context.Context, request llm.Request) (llm.Response, error) {
	model := request.Model.Model
	ctx, span := c.tracer.Start(ctx, "llm.call",
		trace.WithAttributes(
			attribute.String("llm.provider", c.provider),
			attribute.String("llm.model", model),
			attribute.Int("llm.messages", len(request.Messages)),
			attribute.Int("llm.tools", len(request.Tools)),
		))
	defer span.End()

	start := time.Now()
	resp, err := c.inner.Call(ctx, request)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
		if ce, ok := models.AsCollaboratorError(err); ok {
			span.SetAttributes(attribute.String("llm.error_type", ce.Type.String()))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.String("llm.finish_reason", string(resp.FinishReason)),
			attribute.Int("llm.tool_calls", len(resp.Message.ToolCalls)),
			attribute.Int("llm.usage.prompt_tokens", resp.Usage.PromptTokens),
			attribute.Int("llm.usage.completion_tokens", resp.Usage.CompletionTokens),
		)
	}

	c.metrics.RecordLLMCall(c.provider, model, status, duration, resp.Usage)
	return resp, err
}
