package cli

import (
	"io"
	"sync"

	"github.com/mfateev/sandbox-agent/internal/llm"
	"github.com/mfateev/sandbox-agent/internal/models"
	"github.com/mfateev/sandbox-agent/internal/tools"
)

// ProgressObserver prints loop progress as it happens.
type ProgressObserver struct {
	mu       sync.Mutex
	w        io.Writer
	renderer *Renderer
	verbose  bool
}

// NewProgressObserver writes progress for each loop event to w.
func NewProgressObserver(w io.Writer, renderer *Renderer, verbose bool) *ProgressObserver {
	return &ProgressObserver{w: w, renderer: renderer, verbose: verbose}
}

// OnModelResponse prints token counts in verbose mode.
func (o *ProgressObserver) OnModelResponse(iteration int, resp llm.Response) {
	if !o.verbose {
		return
	}
	o.write(o.renderer.RenderUsage(iteration, resp.Usage))
}

// OnToolCall prints the called function.
func (o *ProgressObserver) OnToolCall(call models.ToolCall) {
	o.write(o.renderer.RenderToolCall(call, o.verbose))
}

// OnToolResult prints the result in verbose mode.
func (o *ProgressObserver) OnToolResult(result tools.ToolResult) {
	if !o.verbose {
		return
	}
	o.write(o.renderer.RenderToolResult(result))
}

func (o *ProgressObserver) write(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, _ = io.WriteString(o.w, s)
}
