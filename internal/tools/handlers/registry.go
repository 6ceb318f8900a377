package handlers

import (
	"fmt"

	"github.com/mfateev/sandbox-agent/internal/tools"
)

// Options configures the default tool set.
type Options struct {
	MaxFileChars int
	Script       ScriptConfig
}

// DefaultOptions returns the stock limits: 10,000 characters per read and
// python3 scripts with a 30 second timeout.
func DefaultOptions() Options {
	return Options{
		MaxFileChars: tools.DefaultMaxFileChars,
		Script:       DefaultScriptConfig(),
	}
}

// NewDefaultRegistry registers the four sandboxed tools in the order they
// are declared to the model.
func NewDefaultRegistry(opts Options) (*tools.ToolRegistry, error) {
	registry := tools.NewToolRegistry()
	for _, h := range []tools.ToolHandler{
		NewListDirTool(),
		NewReadFileTool(opts.MaxFileChars),
		NewRunScriptTool(opts.Script),
		NewWriteFileTool(),
	} {
		if err := registry.Register(h); err != nil {
			return nil, fmt.Errorf("registering %s: %w", h.Name(), err)
		}
	}
	return registry, nil
}
