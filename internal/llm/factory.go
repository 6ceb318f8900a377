package llm

import (
	"fmt"

	"github.com/mfateev/sandbox-agent/internal/models"
)

// ProviderClient is a Client that knows which backend it talks to.
type ProviderClient interface {
	Client
	Provider() string
}

// NewClient creates the client for the named provider.
func NewClient(provider string, opts ClientOptions) (ProviderClient, error) {
	switch provider {
	case models.ProviderGroq, "":
		return NewGroqClient(opts), nil
	case models.ProviderOpenAI:
		return NewOpenAIClient(opts), nil
	case models.ProviderAnthropic:
		return NewAnthropicClient(opts), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: groq, openai, anthropic)", provider)
	}
}
