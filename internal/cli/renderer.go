// Package cli renders conversation progress and the final answer for the
// one-shot command line.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/mfateev/sandbox-agent/internal/models"
	"github.com/mfateev/sandbox-agent/internal/tools"
)

// maxResultLines bounds the tool output shown in verbose mode.
const maxResultLines = 5

// Renderer formats progress lines and the final answer.
type Renderer struct {
	styles     Styles
	mdRenderer *glamour.TermRenderer
}

// NewRenderer creates a renderer. Markdown rendering uses glamour wrapped to
// width, or to the terminal width when width is zero.
func NewRenderer(width int, noColor, noMarkdown bool) *Renderer {
	r := &Renderer{styles: DefaultStyles()}
	if noColor {
		r.styles = NoColorStyles()
	}
	if !noMarkdown {
		w := width
		if w <= 0 {
			w = 80
			if tw, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && tw > 0 {
				w = tw
			}
		}
		style := "dark"
		if noColor {
			style = "notty"
		}
		md, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(w),
		)
		if err == nil {
			r.mdRenderer = md
		}
	}
	return r
}

// StdoutIsTerminal reports whether stdout is attached to a terminal.
func StdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// RenderUserPrompt echoes the prompt in verbose mode.
func (r *Renderer) RenderUserPrompt(prompt string) string {
	return r.styles.Label.Render("User prompt:") + " " + prompt + "\n"
}

// RenderUsage renders the token counts of one model pass.
func (r *Renderer) RenderUsage(iteration int, usage models.TokenUsage) string {
	line := fmt.Sprintf("Iteration %d - Prompt tokens: %d, Response tokens: %d",
		iteration, usage.PromptTokens, usage.CompletionTokens)
	return r.styles.StatusLine.Render(line) + "\n"
}

// RenderToolCall renders a tool invocation. Verbose mode includes the raw
// arguments.
func (r *Renderer) RenderToolCall(call models.ToolCall, verbose bool) string {
	name := r.styles.ToolName.Render(call.Name)
	if verbose {
		return r.styles.ToolBullet.Render("Calling function:") + " " + name +
			r.styles.ToolArgs.Render("("+call.Arguments+")") + "\n"
	}
	return r.styles.ToolBullet.Render(" - ") + "Calling function: " + name + "\n"
}

// RenderToolResult renders a tool outcome, truncated in the middle to a few
// lines.
func (r *Renderer) RenderToolResult(result tools.ToolResult) string {
	content := strings.TrimRight(result.Outcome.Text(), "\n")
	if content == "" {
		return r.styles.OutputPrefix.Render("-> ") + r.styles.OutputDim.Render("(no output)") + "\n"
	}

	lines := strings.Split(content, "\n")
	displayed, _ := truncateMiddle(lines, maxResultLines)

	var b strings.Builder
	for i, line := range displayed {
		prefix := r.styles.OutputPrefix.Render("   ")
		if i == 0 {
			prefix = r.styles.OutputPrefix.Render("-> ")
		}
		if result.Outcome.IsSuccess() {
			b.WriteString(prefix + r.styles.OutputDim.Render(line) + "\n")
		} else {
			b.WriteString(prefix + r.styles.OutputFailure.Render(line) + "\n")
		}
	}
	return b.String()
}

// RenderAnswer renders the final answer, as markdown when enabled.
func (r *Renderer) RenderAnswer(content string) string {
	label := r.styles.Label.Render("Final response:") + "\n"
	if r.mdRenderer != nil {
		rendered, err := r.mdRenderer.Render(content)
		if err == nil {
			return label + rendered
		}
	}
	return label + content + "\n"
}

// RenderError renders a session-level failure.
func (r *Renderer) RenderError(err error) string {
	return r.styles.Error.Render("Error:") + " " + err.Error() + "\n"
}

// truncateMiddle keeps the first and last two lines when lines exceeds
// limit, replacing the rest with a count.
func truncateMiddle(lines []string, limit int) (result []string, omitted int) {
	if len(lines) <= limit {
		return lines, 0
	}
	head := 2
	tail := 2
	omitted = len(lines) - head - tail
	result = make([]string, 0, head+1+tail)
	result = append(result, lines[:head]...)
	result = append(result, fmt.Sprintf("… +%d lines", omitted))
	result = append(result, lines[len(lines)-tail:]...)
	return result, omitted
}
