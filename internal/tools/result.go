package tools

import "encoding/json"

// Outcome is either a success text or a failure text, never both.
// Build one with Success or Failure.
type Outcome struct {
	failed bool
	text   string
}

// Success returns a successful outcome carrying text.
func Success(text string) Outcome {
	return Outcome{text: text}
}

// Failure returns a failed outcome carrying a human-readable reason.
func Failure(text string) Outcome {
	return Outcome{failed: true, text: text}
}

// IsSuccess reports whether the outcome is a success.
func (o Outcome) IsSuccess() bool { return !o.failed }

// Text returns the success text or the failure reason.
func (o Outcome) Text() string { return o.text }

// ToolResult is the outcome of one tool invocation, tied to the call that
// produced it.
type ToolResult struct {
	CallID  string
	Name    string
	Outcome Outcome
}

// Payload serializes the result into the single string handed back to the
// model: {"result": "..."} on success, {"error": "..."} on failure.
func (r ToolResult) Payload() string {
	key := "result"
	if !r.Outcome.IsSuccess() {
		key = "error"
	}
	data, err := json.Marshal(map[string]string{key: r.Outcome.Text()})
	if err != nil {
		return `{"error": "failed to encode tool result"}`
	}
	return string(data)
}
