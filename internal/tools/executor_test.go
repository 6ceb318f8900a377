package tools

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/mfateev/sandbox-agent/internal/models"
	"github.com/mfateev/sandbox-agent/internal/sandbox"
)

// stubHandler records the invocation it receives and replies with a
// canned output, error or panic.
type stubHandler struct {
	name     string
	output   *ToolOutput
	err      error
	panicMsg string
	mutating bool

	got *ToolInvocation
}

func (h *stubHandler) Name() string { return h.name }

func (h *stubHandler) Spec() ToolSpec {
	return ToolSpec{Name: h.name, Description: "stub"}
}

func (h *stubHandler) IsMutating(*ToolInvocation) bool { return h.mutating }

func (h *stubHandler) Handle(_ context.Context, inv *ToolInvocation) (*ToolOutput, error) {
	h.got = inv
	if h.panicMsg != "" {
		panic(h.panicMsg)
	}
	return h.output, h.err
}

type recordedExecution struct {
	tool, status string
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedExecution
}

func (r *fakeRecorder) RecordToolExecution(tool, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedExecution{tool, status})
}

func newTestExecutor(t *testing.T, handlers ...ToolHandler) (*Executor, sandbox.Root) {
	t.Helper()
	root, err := sandbox.NewRoot(t.TempDir())
	require.NoError(t, err)

	registry := NewToolRegistry()
	for _, h := range handlers {
		require.NoError(t, registry.Register(h))
	}
	return NewExecutor(registry, root), root
}

func decodePayload(t *testing.T, payload string) map[string]string {
	t.Helper()
	var m map[string]string
	require.NoError(t, json.Unmarshal([]byte(payload), &m))
	return m
}

func TestExecutor_SuccessInjectsRoot(t *testing.T) {
	stub := &stubHandler{name: "echo", output: NewSuccessOutput("hello")}
	exec, root := newTestExecutor(t, stub)

	result := exec.Execute(context.Background(), models.ToolCall{
		ID: "call-1", Name: "echo", Arguments: `{"directory": "pkg"}`,
	})

	assert.True(t, result.Outcome.IsSuccess())
	assert.Equal(t, "call-1", result.CallID)
	assert.Equal(t, "echo", result.Name)
	assert.Equal(t, map[string]string{"result": "hello"}, decodePayload(t, result.Payload()))

	require.NotNil(t, stub.got)
	assert.Equal(t, root, stub.got.Root)
	assert.Equal(t, "call-1", stub.got.CallID)
	assert.Equal(t, "pkg", stub.got.Arguments["directory"])
}

func TestExecutor_ModelCannotOverrideRoot(t *testing.T) {
	stub := &stubHandler{name: "echo", output: NewSuccessOutput("ok")}
	exec, root := newTestExecutor(t, stub)

	exec.Execute(context.Background(), models.ToolCall{
		ID: "c", Name: "echo", Arguments: `{"working_directory": "/", "file_path": "a.txt"}`,
	})

	require.NotNil(t, stub.got)
	assert.NotContains(t, stub.got.Arguments, "working_directory")
	assert.Equal(t, root.Path(), stub.got.Root.Path())
}

func TestExecutor_UnknownTool(t *testing.T) {
	exec, _ := newTestExecutor(t)

	result := exec.Execute(context.Background(), models.ToolCall{ID: "x", Name: "rm_rf", Arguments: `{}`})

	assert.False(t, result.Outcome.IsSuccess())
	assert.Equal(t, "Unknown function: rm_rf", result.Outcome.Text())
	assert.Equal(t, map[string]string{"error": "Unknown function: rm_rf"}, decodePayload(t, result.Payload()))
}

func TestExecutor_MalformedArguments(t *testing.T) {
	stub := &stubHandler{name: "echo", output: NewSuccessOutput("unused")}
	exec, _ := newTestExecutor(t, stub)

	result := exec.Execute(context.Background(), models.ToolCall{ID: "x", Name: "echo", Arguments: `{"file_path": `})

	assert.False(t, result.Outcome.IsSuccess())
	assert.Contains(t, result.Outcome.Text(), "not a valid JSON object")
	assert.Nil(t, stub.got, "handler must not run on malformed arguments")
}

func TestExecutor_EmptyArgumentsAreAnEmptyObject(t *testing.T) {
	stub := &stubHandler{name: "echo", output: NewSuccessOutput("ok")}
	exec, _ := newTestExecutor(t, stub)

	for _, raw := range []string{"", "null", "{}"} {
		result := exec.Execute(context.Background(), models.ToolCall{ID: "x", Name: "echo", Arguments: raw})
		assert.True(t, result.Outcome.IsSuccess(), "arguments %q", raw)
		require.NotNil(t, stub.got)
		assert.Empty(t, stub.got.Arguments)
	}
}

func TestExecutor_HandlerErrorBecomesFailure(t *testing.T) {
	stub := &stubHandler{name: "read", err: &sandbox.ContainmentError{Path: "../secret"}}
	exec, _ := newTestExecutor(t, stub)

	result := exec.Execute(context.Background(), models.ToolCall{ID: "x", Name: "read", Arguments: `{}`})

	assert.False(t, result.Outcome.IsSuccess())
	assert.Contains(t, result.Outcome.Text(), `"../secret"`)
	assert.Contains(t, result.Outcome.Text(), "outside the permitted working directory")
}

func TestExecutor_FailureOutputBecomesFailure(t *testing.T) {
	stub := &stubHandler{name: "read", output: NewFailureOutput("nope")}
	exec, _ := newTestExecutor(t, stub)

	result := exec.Execute(context.Background(), models.ToolCall{ID: "x", Name: "read", Arguments: `{}`})

	assert.False(t, result.Outcome.IsSuccess())
	assert.Equal(t, "nope", result.Outcome.Text())
}

func TestExecutor_NilOutputBecomesFailure(t *testing.T) {
	stub := &stubHandler{name: "read"}
	exec, _ := newTestExecutor(t, stub)

	result := exec.Execute(context.Background(), models.ToolCall{ID: "x", Name: "read", Arguments: `{}`})

	assert.False(t, result.Outcome.IsSuccess())
}

func TestExecutor_PanicIsRecovered(t *testing.T) {
	stub := &stubHandler{name: "boom", panicMsg: "kaboom"}
	exec, _ := newTestExecutor(t, stub)

	result := exec.Execute(context.Background(), models.ToolCall{ID: "x", Name: "boom", Arguments: `{}`})

	assert.False(t, result.Outcome.IsSuccess())
	assert.Contains(t, result.Outcome.Text(), "kaboom")
}

func TestExecutor_RecordsMetricsAndSpans(t *testing.T) {
	root, err := sandbox.NewRoot(t.TempDir())
	require.NoError(t, err)

	registry := NewToolRegistry()
	require.NoError(t, registry.Register(&stubHandler{name: "ok", output: NewSuccessOutput("fine")}))
	require.NoError(t, registry.Register(&stubHandler{name: "bad", err: &NotFoundError{Path: "x"}}))

	recorder := &fakeRecorder{}
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	exec := NewExecutor(registry, root, WithRecorder(recorder), WithTracer(tp.Tracer("test")))
	exec.Execute(context.Background(), models.ToolCall{ID: "1", Name: "ok", Arguments: `{}`})
	exec.Execute(context.Background(), models.ToolCall{ID: "2", Name: "bad", Arguments: `{}`})

	assert.Equal(t, []recordedExecution{{"ok", "success"}, {"bad", "error"}}, recorder.calls)

	ended := spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "tool.execute", ended[0].Name())
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	assert.Equal(t, codes.Error, ended[1].Status().Code)

	var class string
	for _, attr := range ended[1].Attributes() {
		if attr.Key == "tool.error_class" {
			class = attr.Value.AsString()
		}
	}
	assert.Equal(t, "not_found", class)
}

func TestErrorClass(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NewValidationError("x"), "validation"},
		{&NotFoundError{Path: "x"}, "not_found"},
		{&NotAFileError{Path: "x"}, "not_a_file"},
		{&NotADirectoryError{Path: "x"}, "not_a_directory"},
		{&DecodeError{Path: "x"}, "decode"},
		{&ExecutionTimeoutError{Path: "x", Timeout: time.Second}, "timeout"},
		{&UnknownToolError{Name: "x"}, "unknown_tool"},
		{&sandbox.ContainmentError{Path: "x"}, "containment"},
		{errors.New("other"), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorClass(tt.err), "%T", tt.err)
	}
}

func TestExecutor_IsMutating(t *testing.T) {
	registry := NewToolRegistry()
	require.NoError(t, registry.Register(&stubHandler{name: "read", output: NewSuccessOutput("ok")}))
	require.NoError(t, registry.Register(&stubHandler{name: "write", output: NewSuccessOutput("ok"), mutating: true}))

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	root, err := sandbox.NewRoot(t.TempDir())
	require.NoError(t, err)
	executor := NewExecutor(registry, root, WithTracer(tp.Tracer("test")))

	assert.False(t, executor.IsMutating("read"))
	assert.True(t, executor.IsMutating("write"))
	assert.False(t, executor.IsMutating("missing"))

	executor.Execute(context.Background(), models.ToolCall{ID: "1", Name: "write", Arguments: `{}`})
	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Contains(t, ended[0].Attributes(), attribute.Bool("tool.mutating", true))
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	// "é" is two bytes; a four-byte limit falls inside the second one.
	assert.Equal(t, "aé...", truncate("aééé", 4))
	assert.True(t, utf8.ValidString(truncate("日本語テキスト", 7)))
	assert.Equal(t, "日本...", truncate("日本語テキスト", 7))
}
