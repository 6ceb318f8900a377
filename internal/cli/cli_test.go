package cli

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mfateev/sandbox-agent/internal/llm"
	"github.com/mfateev/sandbox-agent/internal/models"
	"github.com/mfateev/sandbox-agent/internal/tools"
)

// stripANSI removes ANSI escape sequences from a string for test assertions.
var ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiRegexp.ReplaceAllString(s, "")
}

func newTestRenderer() *Renderer {
	return NewRenderer(80, true, true) // noColor=true, noMarkdown=true
}

func TestRenderer_ToolCall(t *testing.T) {
	r := newTestRenderer()
	call := models.ToolCall{ID: "a", Name: "get_files_info", Arguments: `{"directory":"pkg"}`}

	assert.Equal(t, " - Calling function: get_files_info\n", r.RenderToolCall(call, false))
	assert.Equal(t, `Calling function: get_files_info({"directory":"pkg"})`+"\n", r.RenderToolCall(call, true))
}

func TestRenderer_ToolResult(t *testing.T) {
	r := newTestRenderer()

	out := r.RenderToolResult(tools.ToolResult{Outcome: tools.Success("one\ntwo\n")})
	assert.Equal(t, "-> one\n   two\n", out)

	out = r.RenderToolResult(tools.ToolResult{Outcome: tools.Success("")})
	assert.Contains(t, out, "(no output)")

	lines := make([]string, 10)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	out = r.RenderToolResult(tools.ToolResult{Outcome: tools.Failure(strings.Join(lines, "\n"))})
	assert.Contains(t, out, "line 0")
	assert.Contains(t, out, "… +6 lines")
	assert.Contains(t, out, "line 9")
	assert.NotContains(t, out, "line 5")
}

func TestRenderer_AnswerPlain(t *testing.T) {
	r := newTestRenderer()
	assert.Equal(t, "Final response:\nall done\n", r.RenderAnswer("all done"))
}

func TestRenderer_AnswerMarkdown(t *testing.T) {
	r := NewRenderer(80, false, false)
	out := stripANSI(r.RenderAnswer("# Title\n\nSome **bold** text"))
	assert.True(t, strings.HasPrefix(out, "Final response:\n"))
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")
	assert.NotContains(t, out, "**")
}

func TestRenderer_UsageAndErrors(t *testing.T) {
	r := newTestRenderer()
	assert.Equal(t, "Iteration 2 - Prompt tokens: 100, Response tokens: 7\n",
		r.RenderUsage(2, models.TokenUsage{PromptTokens: 100, CompletionTokens: 7}))
	assert.Equal(t, "User prompt: fix the bug\n", r.RenderUserPrompt("fix the bug"))
	assert.Equal(t, "Error: boom\n", r.RenderError(errors.New("boom")))
}

func TestProgressObserver(t *testing.T) {
	call := models.ToolCall{ID: "a", Name: "write_file", Arguments: `{}`}
	result := tools.ToolResult{CallID: "a", Name: "write_file", Outcome: tools.Success("ok")}
	resp := llm.Response{Usage: models.TokenUsage{PromptTokens: 3, CompletionTokens: 1}}

	var quiet bytes.Buffer
	o := NewProgressObserver(&quiet, newTestRenderer(), false)
	o.OnModelResponse(1, resp)
	o.OnToolCall(call)
	o.OnToolResult(result)
	assert.Equal(t, " - Calling function: write_file\n", quiet.String())

	var verbose bytes.Buffer
	o = NewProgressObserver(&verbose, newTestRenderer(), true)
	o.OnModelResponse(1, resp)
	o.OnToolCall(call)
	o.OnToolResult(result)
	assert.Equal(t, "Iteration 1 - Prompt tokens: 3, Response tokens: 1\n"+
		"Calling function: write_file({})\n"+
		"-> ok\n", verbose.String())
}
