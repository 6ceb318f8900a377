package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/mfateev/sandbox-agent/internal/models"
	"github.com/mfateev/sandbox-agent/internal/sandbox"
)

// reservedRootArgument is never honored from model input.
const reservedRootArgument = "working_directory"

// maxLoggedArguments bounds the argument text written to the trace log.
const maxLoggedArguments = 512

// ExecutionRecorder receives one observation per executed tool call.
type ExecutionRecorder interface {
	RecordToolExecution(tool, status string, duration time.Duration)
}

// Executor turns model tool calls into ToolResults. It owns the working root
// and injects it into every invocation. Calls are executed one at a time.
type Executor struct {
	registry *ToolRegistry
	root     sandbox.Root
	logger   *slog.Logger
	tracer   trace.Tracer
	recorder ExecutionRecorder
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the structured logger for trace records.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracer sets the tracer used for tool.execute spans.
func WithTracer(tracer trace.Tracer) ExecutorOption {
	return func(e *Executor) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder ExecutionRecorder) ExecutorOption {
	return func(e *Executor) {
		e.recorder = recorder
	}
}

// NewExecutor creates an executor bound to registry and root.
func NewExecutor(registry *ToolRegistry, root sandbox.Root, opts ...ExecutorOption) *Executor {
	e := &Executor{
		registry: registry,
		root:     root,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:   noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Root returns the working root every invocation is confined to.
func (e *Executor) Root() sandbox.Root {
	return e.root
}

// Specs returns the declarations of the registered tools.
func (e *Executor) Specs() []ToolSpec {
	return e.registry.Specs()
}

// IsMutating reports whether the named tool may modify the working root.
// Unknown tools report false.
func (e *Executor) IsMutating(name string) bool {
	handler, err := e.registry.GetHandler(name)
	if err != nil {
		return false
	}
	return handler.IsMutating(&ToolInvocation{ToolName: name, Root: e.root})
}

// Execute runs a single tool call. It never returns an error: every failure,
// including unknown tools, malformed arguments and handler panics, becomes a
// failure ToolResult the model can read.
func (e *Executor) Execute(ctx context.Context, call models.ToolCall) ToolResult {
	ctx, span := e.tracer.Start(ctx, "tool.execute",
		trace.WithAttributes(
			attribute.String("tool.name", call.Name),
			attribute.String("tool.call_id", call.ID),
		))
	defer span.End()

	start := time.Now()
	result, err := e.execute(ctx, call)
	duration := time.Since(start)

	status := "success"
	if !result.Outcome.IsSuccess() {
		status = "error"
		class := "failure"
		if err != nil {
			class = ErrorClass(err)
		}
		span.SetAttributes(attribute.String("tool.error_class", class))
		span.SetStatus(codes.Error, result.Outcome.Text())
	}

	if e.recorder != nil {
		e.recorder.RecordToolExecution(call.Name, status, duration)
	}

	e.logger.Info("tool executed",
		"tool", call.Name,
		"call_id", call.ID,
		"arguments", truncate(call.Arguments, maxLoggedArguments),
		"outcome", status,
		"duration", duration,
	)

	return result
}

// execute dispatches the call and converts handler errors and panics into
// failure outcomes. The returned error is the cause of a failure, if any.
func (e *Executor) execute(ctx context.Context, call models.ToolCall) (result ToolResult, cause error) {
	result = ToolResult{CallID: call.ID, Name: call.Name}

	defer func() {
		if r := recover(); r != nil {
			cause = fmt.Errorf("tool %s panicked: %v", call.Name, r)
			result.Outcome = Failure(cause.Error())
		}
	}()

	handler, err := e.registry.GetHandler(call.Name)
	if err != nil {
		result.Outcome = Failure(err.Error())
		return result, err
	}

	args, err := parseArguments(call.Arguments)
	if err != nil {
		result.Outcome = Failure(err.Error())
		return result, err
	}
	delete(args, reservedRootArgument)

	invocation := &ToolInvocation{
		CallID:    call.ID,
		ToolName:  call.Name,
		Arguments: args,
		Root:      e.root,
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("tool.mutating", handler.IsMutating(invocation)))

	output, err := handler.Handle(ctx, invocation)
	if err != nil {
		result.Outcome = Failure(err.Error())
		return result, err
	}
	if output == nil {
		result.Outcome = Failure(fmt.Sprintf("tool %s returned no output", call.Name))
		return result, nil
	}
	if output.Success != nil && !*output.Success {
		result.Outcome = Failure(output.Content)
		return result, nil
	}
	result.Outcome = Success(output.Content)
	return result, nil
}

// parseArguments decodes the raw JSON argument object. Empty input and JSON
// null both mean "no arguments".
func parseArguments(raw string) (map[string]interface{}, error) {
	args := make(map[string]interface{})
	if raw == "" {
		return args, nil
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, NewValidationErrorf("arguments are not a valid JSON object: %v", err)
	}
	for k, v := range decoded {
		args[k] = v
	}
	return args, nil
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
