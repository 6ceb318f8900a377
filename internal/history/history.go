// Package history keeps the ordered message log of one conversation.
//
// The log is append-only. It also enforces tool-call pairing: once an
// assistant message requests tool calls, the next messages must be the tool
// results for exactly those calls, in the same order, before anything else
// may be appended.
package history

import (
	"fmt"
	"sync"

	"github.com/mfateev/sandbox-agent/internal/models"
)

// InMemoryHistory is an append-only, in-process conversation log.
type InMemoryHistory struct {
	mu       sync.RWMutex
	messages []models.Message
	pending  []models.ToolCall
}

// NewInMemoryHistory creates an empty history.
func NewInMemoryHistory() *InMemoryHistory {
	return &InMemoryHistory{
		messages: make([]models.Message, 0, 8),
	}
}

// Append adds msg to the end of the log.
func (h *InMemoryHistory) Append(msg models.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.pending) > 0 {
		next := h.pending[0]
		if msg.Role != models.RoleTool {
			return fmt.Errorf("expected tool result for call %q, got %s message", next.ID, msg.Role)
		}
		if msg.ToolCallID != next.ID {
			return fmt.Errorf("expected tool result for call %q, got %q", next.ID, msg.ToolCallID)
		}
		h.pending = h.pending[1:]
	} else if msg.Role == models.RoleTool {
		return fmt.Errorf("tool result %q does not answer a pending call", msg.ToolCallID)
	}

	if msg.Role == models.RoleAssistant && msg.HasToolCalls() {
		h.pending = append([]models.ToolCall(nil), msg.ToolCalls...)
	}

	h.messages = append(h.messages, msg)
	return nil
}

// Messages returns a copy of the log, safe to hand to a model client.
func (h *InMemoryHistory) Messages() []models.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of messages.
func (h *InMemoryHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// PendingToolCalls returns the number of tool calls still awaiting results.
func (h *InMemoryHistory) PendingToolCalls() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.pending)
}

// EstimateTokenCount approximates the history size in tokens at four bytes
// per token.
func (h *InMemoryHistory) EstimateTokenCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	totalChars := 0
	for _, m := range h.messages {
		totalChars += len(m.Content)
		for _, tc := range m.ToolCalls {
			totalChars += len(tc.Name) + len(tc.Arguments)
		}
	}
	return totalChars / 4
}
