// Package llm provides the model collaborator contract and its provider
// implementations (OpenAI Chat Completions, Groq through the same API, and
// Anthropic Messages).
package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/mfateev/sandbox-agent/internal/models"
	"github.com/mfateev/sandbox-agent/internal/tools"
)

// Request is one model call: the full history so far plus the tool
// declarations. Tool choice is always automatic.
type Request struct {
	Messages []models.Message   `json:"messages"`
	Tools    []tools.ToolSpec   `json:"tools"`
	Model    models.ModelConfig `json:"model"`
}

// Response is the single assistant message the model produced.
type Response struct {
	Message      models.Message      `json:"message"`
	FinishReason models.FinishReason `json:"finish_reason"`
	Usage        models.TokenUsage   `json:"usage"`
}

// Client is the interface for LLM providers. Errors are returned as
// *models.CollaboratorError.
type Client interface {
	Call(ctx context.Context, request Request) (Response, error)
}

// ClientOptions configures provider clients. Empty fields fall back to the
// provider's defaults and environment variables.
type ClientOptions struct {
	APIKey     string
	BaseURL    string
	MaxRetries int
	HTTPClient *http.Client
}

// classifyError wraps a provider error into a CollaboratorError. Context
// overflow is detected from the message first since providers report it
// with plain 400s.
func classifyError(provider string, statusCode int, err error) *models.CollaboratorError {
	ce := models.NewCollaboratorError(provider, statusCode, err)

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "context_length") ||
		strings.Contains(msg, "maximum context length") ||
		strings.Contains(msg, "too many tokens") ||
		strings.Contains(msg, "prompt is too long"):
		ce.Type = models.ErrorTypeContextOverflow
	case statusCode == 0 && (strings.Contains(msg, "rate_limit") || strings.Contains(msg, "rate limit")):
		ce.Type = models.ErrorTypeAPILimit
	}
	return ce
}
