// Package models contains the conversation types shared by the model
// clients, the tool executor and the conversation loop.
package models

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the conversation history.
//
// Field usage by role:
//
//	system, user: Content
//	assistant:    Content and/or ToolCalls
//	tool:         Content (serialized tool result), ToolCallID, Name
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`

	// Assistant only.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// Tool only.
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

// HasToolCalls reports whether the message requests any tool invocations.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// SystemMessage builds a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// ToolMessage builds the message answering a single tool call.
func ToolMessage(callID, name, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Name: name, Content: content}
}

// ToolCall is a model-requested invocation of a named tool.
// Arguments is the raw JSON object text exactly as the provider returned it.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// FinishReason indicates why the LLM stopped generating.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonToolCalls     FinishReason = "tool_calls"
	FinishReasonLength        FinishReason = "length"
	FinishReasonContentFilter FinishReason = "content_filter"
)

// TokenUsage tracks token consumption.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
	CachedTokens     int `json:"cached_tokens"`
}

// Add accumulates other into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
	u.CachedTokens += other.CachedTokens
}
