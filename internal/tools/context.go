// Package tools provides the tool registry, declarations, error taxonomy and
// the executor that dispatches model-issued tool calls to handlers.
package tools

import "github.com/mfateev/sandbox-agent/internal/sandbox"

// ToolInvocation provides context for a single tool execution.
//
// Root is injected by the Executor from host configuration. It is never
// read from Arguments, so the model cannot choose or widen the sandbox.
type ToolInvocation struct {
	CallID    string                 `json:"call_id"`
	ToolName  string                 `json:"tool_name"`
	Arguments map[string]interface{} `json:"arguments"`
	Root      sandbox.Root           `json:"-"`
}

// ToolOutput is what a handler returns when it ran to completion.
// Success=false marks an anticipated failure (e.g. a missing file) whose
// Content is still meant for the model.
type ToolOutput struct {
	Content string `json:"content"`
	Success *bool  `json:"success,omitempty"`
}

// NewSuccessOutput wraps content as a successful output.
func NewSuccessOutput(content string) *ToolOutput {
	success := true
	return &ToolOutput{Content: content, Success: &success}
}

// NewFailureOutput wraps content as a failed output.
func NewFailureOutput(content string) *ToolOutput {
	success := false
	return &ToolOutput{Content: content, Success: &success}
}

// StringArg extracts a required, non-empty string argument.
func (inv *ToolInvocation) StringArg(name string) (string, error) {
	v, ok := inv.Arguments[name]
	if !ok {
		return "", NewValidationErrorf("missing required argument: %s", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", NewValidationErrorf("%s must be a string", name)
	}
	if s == "" {
		return "", NewValidationErrorf("%s cannot be empty", name)
	}
	return s, nil
}

// OptionalStringArg extracts an optional string argument, returning def when
// it is absent or empty.
func (inv *ToolInvocation) OptionalStringArg(name, def string) (string, error) {
	v, ok := inv.Arguments[name]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", NewValidationErrorf("%s must be a string", name)
	}
	if s == "" {
		return def, nil
	}
	return s, nil
}

// RawStringArg extracts a required string argument that may be empty.
func (inv *ToolInvocation) RawStringArg(name string) (string, error) {
	v, ok := inv.Arguments[name]
	if !ok {
		return "", NewValidationErrorf("missing required argument: %s", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", NewValidationErrorf("%s must be a string", name)
	}
	return s, nil
}

// StringSliceArg extracts an optional array-of-strings argument.
// JSON decoding yields []interface{}; []string is accepted for direct callers.
func (inv *ToolInvocation) StringSliceArg(name string) ([]string, error) {
	v, ok := inv.Arguments[name]
	if !ok || v == nil {
		return nil, nil
	}
	switch items := v.(type) {
	case []string:
		return items, nil
	case []interface{}:
		out := make([]string, 0, len(items))
		for i, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, NewValidationErrorf("%s[%d] must be a string", name, i)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, NewValidationErrorf("%s must be an array of strings", name)
	}
}
