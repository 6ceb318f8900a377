package tools

import (
	"context"
	"fmt"
)

// ToolHandler is the interface for tool implementations.
type ToolHandler interface {
	// Name returns the tool's name.
	Name() string

	// Spec returns the declaration sent to the model.
	Spec() ToolSpec

	// IsMutating returns whether this invocation may modify the working root.
	IsMutating(invocation *ToolInvocation) bool

	// Handle executes the tool with the given invocation context.
	Handle(ctx context.Context, invocation *ToolInvocation) (*ToolOutput, error)
}

// ToolRegistry stores tool handlers by name and remembers registration order
// so the declarations sent to the model are stable across calls.
type ToolRegistry struct {
	handlers map[string]ToolHandler
	order    []string
}

// NewToolRegistry creates a new tool registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		handlers: make(map[string]ToolHandler),
	}
}

// Register registers a tool handler. Names must be unique.
func (r *ToolRegistry) Register(handler ToolHandler) error {
	name := handler.Name()
	if name == "" {
		return fmt.Errorf("tool handler has an empty name")
	}
	if spec := handler.Spec(); spec.Name != name {
		return fmt.Errorf("tool %q declares spec name %q", name, spec.Name)
	}
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("tool %q is already registered", name)
	}
	r.handlers[name] = handler
	r.order = append(r.order, name)
	return nil
}

// GetHandler returns a tool handler by name.
func (r *ToolRegistry) GetHandler(name string) (ToolHandler, error) {
	handler, ok := r.handlers[name]
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}
	return handler, nil
}

// HasTool checks if a tool is registered.
func (r *ToolRegistry) HasTool(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// ToolCount returns the number of registered tools.
func (r *ToolRegistry) ToolCount() int {
	return len(r.handlers)
}

// Specs returns the tool declarations in registration order.
func (r *ToolRegistry) Specs() []ToolSpec {
	specs := make([]ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.handlers[name].Spec())
	}
	return specs
}
