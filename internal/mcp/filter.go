package mcp

// ToolFilter controls which tools the server exposes.
// A tool is allowed if: (1) enabled is nil (no allowlist) OR the tool is in enabled,
// AND (2) the tool is not in disabled.
type ToolFilter struct {
	Enabled  map[string]bool // Allow-list (nil = allow all)
	Disabled map[string]bool // Deny-list
}

// NewToolFilter creates a ToolFilter from enabled/disabled tool lists.
func NewToolFilter(enabledTools, disabledTools []string) ToolFilter {
	var enabled map[string]bool
	if len(enabledTools) > 0 {
		enabled = make(map[string]bool, len(enabledTools))
		for _, t := range enabledTools {
			enabled[t] = true
		}
	}

	disabled := make(map[string]bool, len(disabledTools))
	for _, t := range disabledTools {
		disabled[t] = true
	}

	return ToolFilter{Enabled: enabled, Disabled: disabled}
}

// Allows returns whether the given tool name passes the filter.
func (f ToolFilter) Allows(toolName string) bool {
	if f.Enabled != nil && !f.Enabled[toolName] {
		return false
	}
	return !f.Disabled[toolName]
}
