package instructions

import (
	"fmt"
	"strings"

	"github.com/mfateev/sandbox-agent/internal/tools"
)

// Input collects the sources of the system prompt.
type Input struct {
	// BaseOverride replaces the default base prompt if non-empty.
	BaseOverride string

	// Tools are the declarations offered to the model, in order.
	Tools []tools.ToolSpec

	// ProjectDoc is the content of a project note from the working root.
	ProjectDoc string

	// ProjectDocName labels ProjectDoc in the prompt.
	ProjectDocName string
}

// BuildSystemPrompt renders the system message: base prompt, then the tool
// list, then project notes when present.
func BuildSystemPrompt(in Input) string {
	var b strings.Builder
	b.WriteString(GetBaseInstructions(in.BaseOverride))

	if len(in.Tools) > 0 {
		b.WriteString("\n\nYou have access to the following functions:\n")
		for _, spec := range in.Tools {
			fmt.Fprintf(&b, "- %s: %s\n", spec.Name, spec.Description)
		}
	}

	if doc := strings.TrimSpace(in.ProjectDoc); doc != "" {
		name := in.ProjectDocName
		if name == "" {
			name = "project notes"
		}
		fmt.Fprintf(&b, "\n--- %s ---\n%s\n", name, doc)
	}

	return strings.TrimRight(b.String(), "\n")
}
