package cli

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles for progress and answer output.
type Styles struct {
	// "User prompt:" and "Final response:" labels
	Label lipgloss.Style
	// Per-iteration token counts
	StatusLine lipgloss.Style
	// Leading " - " or "Calling function:" marker
	ToolBullet lipgloss.Style
	// Tool name
	ToolName lipgloss.Style
	// Tool arguments in verbose mode
	ToolArgs lipgloss.Style
	// Dimmed result text
	OutputDim lipgloss.Style
	// Result prefix (->, │)
	OutputPrefix lipgloss.Style
	// Failed result text
	OutputFailure lipgloss.Style
	// Session-level error
	Error lipgloss.Style
}

// DefaultStyles returns styles with colors enabled.
func DefaultStyles() Styles {
	return Styles{
		Label:         lipgloss.NewStyle().Bold(true),
		StatusLine:    lipgloss.NewStyle().Faint(true),
		ToolBullet:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")), // green
		ToolName:      lipgloss.NewStyle().Foreground(lipgloss.Color("3")), // yellow
		ToolArgs:      lipgloss.NewStyle().Faint(true),
		OutputDim:     lipgloss.NewStyle().Faint(true),
		OutputPrefix:  lipgloss.NewStyle().Faint(true),
		OutputFailure: lipgloss.NewStyle().Foreground(lipgloss.Color("1")), // red
		Error:         lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}

// NoColorStyles returns styles with no colors (plain text).
func NoColorStyles() Styles {
	return Styles{
		Label:         lipgloss.NewStyle(),
		StatusLine:    lipgloss.NewStyle(),
		ToolBullet:    lipgloss.NewStyle(),
		ToolName:      lipgloss.NewStyle(),
		ToolArgs:      lipgloss.NewStyle(),
		OutputDim:     lipgloss.NewStyle(),
		OutputPrefix:  lipgloss.NewStyle(),
		OutputFailure: lipgloss.NewStyle(),
		Error:         lipgloss.NewStyle(),
	}
}
