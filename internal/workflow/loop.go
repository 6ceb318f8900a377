// Package workflow runs the bounded conversation loop: model call, tool
// execution, repeat, until the model answers, stalls, fails, or the pass
// limit is reached.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/mfateev/sandbox-agent/internal/history"
	"github.com/mfateev/sandbox-agent/internal/instructions"
	"github.com/mfateev/sandbox-agent/internal/llm"
	"github.com/mfateev/sandbox-agent/internal/models"
	"github.com/mfateev/sandbox-agent/internal/tools"
)

// DefaultMaxIterations is the number of model passes allowed per session.
const DefaultMaxIterations = 20

// Session outcomes reported to the SessionRecorder.
const (
	OutcomeAnswer             = "answer"
	OutcomeStalled            = "stalled"
	OutcomeIterationCap       = "iteration_cap"
	OutcomeCollaboratorFailed = "collaborator_error"
	OutcomeCanceled           = "canceled"
)

// ErrStalled is returned when the model produces neither content nor tool
// calls.
var ErrStalled = errors.New("model returned neither an answer nor tool calls")

// IterationCapError is returned when the pass limit is reached without a
// final answer.
type IterationCapError struct {
	Limit int
}

func (e *IterationCapError) Error() string {
	return fmt.Sprintf("reached maximum of %d iterations without a final answer", e.Limit)
}

// Observer receives progress callbacks. Calls happen on the loop goroutine,
// in conversation order.
type Observer interface {
	OnModelResponse(iteration int, resp llm.Response)
	OnToolCall(call models.ToolCall)
	OnToolResult(result tools.ToolResult)
}

// SessionRecorder records how each session ended.
type SessionRecorder interface {
	RecordSession(outcome string, iterations int)
}

// Result is the state of a finished session. It is returned on every exit
// path, including errors.
type Result struct {
	SessionID  string
	Answer     string
	Iterations int
	Usage      models.TokenUsage
	History    []models.Message
}

// ConversationLoop drives one model client and one tool executor.
type ConversationLoop struct {
	client   llm.Client
	executor *tools.Executor

	model          models.ModelConfig
	maxIterations  int
	baseOverride   string
	loadProjectDoc bool

	logger   *slog.Logger
	tracer   trace.Tracer
	observer Observer
	recorder SessionRecorder
}

// LoopOption configures a ConversationLoop.
type LoopOption func(*ConversationLoop)

// WithModel sets the model parameters sent on every call.
func WithModel(model models.ModelConfig) LoopOption {
	return func(l *ConversationLoop) { l.model = model }
}

// WithMaxIterations sets the pass limit. Non-positive values keep the default.
func WithMaxIterations(n int) LoopOption {
	return func(l *ConversationLoop) {
		if n > 0 {
			l.maxIterations = n
		}
	}
}

// WithInstructions replaces the built-in base prompt.
func WithInstructions(base string) LoopOption {
	return func(l *ConversationLoop) { l.baseOverride = base }
}

// WithProjectDoc appends AGENTS.md style notes from the working root to the
// system prompt.
func WithProjectDoc(enabled bool) LoopOption {
	return func(l *ConversationLoop) { l.loadProjectDoc = enabled }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) LoopOption {
	return func(l *ConversationLoop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithTracer sets the tracer for agent.run spans.
func WithTracer(tracer trace.Tracer) LoopOption {
	return func(l *ConversationLoop) {
		if tracer != nil {
			l.tracer = tracer
		}
	}
}

// WithObserver sets the progress observer.
func WithObserver(observer Observer) LoopOption {
	return func(l *ConversationLoop) { l.observer = observer }
}

// WithSessionRecorder sets the session outcome recorder.
func WithSessionRecorder(recorder SessionRecorder) LoopOption {
	return func(l *ConversationLoop) { l.recorder = recorder }
}

// NewConversationLoop creates a loop over client and executor.
func NewConversationLoop(client llm.Client, executor *tools.Executor, opts ...LoopOption) *ConversationLoop {
	l := &ConversationLoop{
		client:        client,
		executor:      executor,
		model:         models.DefaultModelConfig(),
		maxIterations: DefaultMaxIterations,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:        noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run executes one session for prompt.
//
// It returns the final answer on success. Otherwise the error is one of
// ErrStalled, *IterationCapError, *models.CollaboratorError or the context
// error, and the Result still carries the history and pass count.
func (l *ConversationLoop) Run(ctx context.Context, prompt string) (*Result, error) {
	result := &Result{SessionID: uuid.NewString()}
	logger := l.logger.With("session_id", result.SessionID)

	ctx, span := l.tracer.Start(ctx, "agent.run",
		trace.WithAttributes(
			attribute.String("agent.session_id", result.SessionID),
			attribute.String("agent.root", l.executor.Root().Path()),
			attribute.String("llm.model", l.model.Model),
			attribute.Int("agent.max_iterations", l.maxIterations),
		))
	defer span.End()

	h := history.NewInMemoryHistory()
	finish := func(outcome string, err error) (*Result, error) {
		result.History = h.Messages()
		span.SetAttributes(
			attribute.String("agent.outcome", outcome),
			attribute.Int("agent.iterations", result.Iterations),
			attribute.Int("llm.usage.total_tokens", result.Usage.TotalTokens),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		if l.recorder != nil {
			l.recorder.RecordSession(outcome, result.Iterations)
		}
		logger.Info("session finished", "outcome", outcome, "iterations", result.Iterations,
			"total_tokens", result.Usage.TotalTokens)
		return result, err
	}

	specs := l.executor.Specs()
	if err := l.seed(h, prompt, specs, logger); err != nil {
		return finish(OutcomeCollaboratorFailed, err)
	}

	for iteration := 1; iteration <= l.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return finish(OutcomeCanceled, err)
		}
		result.Iterations = iteration

		start := time.Now()
		resp, err := l.client.Call(ctx, llm.Request{
			Messages: h.Messages(),
			Tools:    specs,
			Model:    l.model,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return finish(OutcomeCanceled, ctxErr)
			}
			logger.Warn("model call failed", "iteration", iteration, "error", err)
			return finish(OutcomeCollaboratorFailed, asCollaboratorError(err))
		}
		result.Usage.Add(resp.Usage)

		msg := normalizeAssistant(resp.Message)
		resp.Message = msg
		if err := h.Append(msg); err != nil {
			return finish(OutcomeCollaboratorFailed, fmt.Errorf("recording model response: %w", err))
		}
		logger.Debug("model responded", "iteration", iteration, "tool_calls", len(msg.ToolCalls),
			"finish_reason", resp.FinishReason, "duration", time.Since(start),
			"history_tokens", h.EstimateTokenCount())
		if l.observer != nil {
			l.observer.OnModelResponse(iteration, resp)
		}

		if msg.HasToolCalls() {
			if err := l.runTools(ctx, h, msg.ToolCalls); err != nil {
				return finish(OutcomeCollaboratorFailed, err)
			}
			continue
		}

		if strings.TrimSpace(msg.Content) != "" {
			result.Answer = msg.Content
			return finish(OutcomeAnswer, nil)
		}
		return finish(OutcomeStalled, ErrStalled)
	}

	return finish(OutcomeIterationCap, &IterationCapError{Limit: l.maxIterations})
}

// seed appends the system prompt and the user prompt.
func (l *ConversationLoop) seed(h *history.InMemoryHistory, prompt string, specs []tools.ToolSpec, logger *slog.Logger) error {
	in := instructions.Input{
		BaseOverride: l.baseOverride,
		Tools:        specs,
	}
	if l.loadProjectDoc {
		doc, name, err := instructions.LoadProjectDoc(l.executor.Root())
		if err != nil {
			logger.Warn("ignoring project notes", "error", err)
		} else if doc != "" {
			in.ProjectDoc, in.ProjectDocName = doc, name
		}
	}

	if err := h.Append(models.SystemMessage(instructions.BuildSystemPrompt(in))); err != nil {
		return err
	}
	return h.Append(models.UserMessage(prompt))
}

// runTools executes calls one at a time, in order, appending one tool
// message per call.
func (l *ConversationLoop) runTools(ctx context.Context, h *history.InMemoryHistory, calls []models.ToolCall) error {
	for _, call := range calls {
		if l.observer != nil {
			l.observer.OnToolCall(call)
		}
		res := l.executor.Execute(ctx, call)
		if l.observer != nil {
			l.observer.OnToolResult(res)
		}
		if err := h.Append(models.ToolMessage(call.ID, call.Name, res.Payload())); err != nil {
			return fmt.Errorf("recording result of %s: %w", call.Name, err)
		}
	}
	if n := h.PendingToolCalls(); n > 0 {
		return fmt.Errorf("%d tool calls left without results", n)
	}
	return nil
}

// normalizeAssistant forces the assistant role and gives every tool call an
// ID so results can be paired with it.
func normalizeAssistant(msg models.Message) models.Message {
	msg.Role = models.RoleAssistant
	if len(msg.ToolCalls) == 0 {
		msg.ToolCalls = nil
		return msg
	}
	calls := make([]models.ToolCall, len(msg.ToolCalls))
	copy(calls, msg.ToolCalls)
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = "call_" + uuid.NewString()
		}
	}
	msg.ToolCalls = calls
	return msg
}

// asCollaboratorError guarantees the collaborator error type for clients
// that return plain errors.
func asCollaboratorError(err error) error {
	if _, ok := models.AsCollaboratorError(err); ok {
		return err
	}
	return models.NewCollaboratorError("", 0, err)
}
