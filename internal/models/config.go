package models

// Provider names accepted by the client factory and the configuration layer.
const (
	ProviderOpenAI    = "openai"
	ProviderGroq      = "groq"
	ProviderAnthropic = "anthropic"
)

// ModelConfig configures the LLM model parameters
type ModelConfig struct {
	Provider    string  `json:"provider" yaml:"provider"`
	Model       string  `json:"model" yaml:"model"`
	Temperature float64 `json:"temperature" yaml:"temperature"` // 0.0 to 2.0
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`   // Max tokens to generate
}

// DefaultModelConfig returns a sensible default configuration
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Provider:    ProviderGroq,
		Model:       DefaultModelForProvider(ProviderGroq),
		Temperature: 0.2,
		MaxTokens:   4096,
	}
}

// DefaultModelForProvider returns the model used when none is configured.
func DefaultModelForProvider(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-sonnet-4-5-20250929"
	case ProviderGroq:
		return "llama-3.3-70b-versatile"
	default:
		return ""
	}
}

// IsKnownProvider reports whether provider names a supported backend.
func IsKnownProvider(provider string) bool {
	switch provider {
	case ProviderOpenAI, ProviderGroq, ProviderAnthropic:
		return true
	default:
		return false
	}
}
