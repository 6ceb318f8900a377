package llm

import (
	"context"
	"errors"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/mfateev/sandbox-agent/internal/models"
	"github.com/mfateev/sandbox-agent/internal/tools"
)

// GroqBaseURL is Groq's OpenAI-compatible endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIClient implements Client using the Chat Completions API. It also
// serves any OpenAI-compatible endpoint such as Groq.
type OpenAIClient struct {
	client   openai.Client
	provider string
}

// NewOpenAIClient creates a client for api.openai.com. The key defaults to
// OPENAI_API_KEY.
func NewOpenAIClient(opts ClientOptions) *OpenAIClient {
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return newChatCompletionsClient(models.ProviderOpenAI, opts)
}

// NewGroqClient creates a client for Groq. The key defaults to GROQ_API_KEY.
func NewGroqClient(opts ClientOptions) *OpenAIClient {
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv("GROQ_API_KEY")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = GroqBaseURL
	}
	return newChatCompletionsClient(models.ProviderGroq, opts)
}

func newChatCompletionsClient(provider string, opts ClientOptions) *OpenAIClient {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(opts.MaxRetries),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	return &OpenAIClient{
		client:   openai.NewClient(reqOpts...),
		provider: provider,
	}
}

// Provider returns the backend name used for labels and errors.
func (c *OpenAIClient) Provider() string {
	return c.provider
}

// Call sends the conversation to the Chat Completions endpoint and returns
// the first choice.
func (c *OpenAIClient) Call(ctx context.Context, request Request) (Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(request.Model.Model),
		Messages: buildChatMessages(request.Messages),
	}
	if request.Model.Temperature > 0 {
		params.Temperature = openai.Float(request.Model.Temperature)
	}
	if request.Model.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(request.Model.MaxTokens))
	}
	if len(request.Tools) > 0 {
		params.Tools = buildChatTools(request.Tools)
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String("auto"),
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Response{}, c.classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, classifyError(c.provider, 0, errors.New("response contained no choices"))
	}

	choice := resp.Choices[0]
	msg := models.Message{
		Role:    models.RoleAssistant,
		Content: choice.Message.Content,
	}
	for _, tc := range choice.Message.ToolCalls {
		if tc.Type != "" && tc.Type != "function" {
			continue
		}
		msg.ToolCalls = append(msg.ToolCalls, models.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return Response{
		Message:      msg,
		FinishReason: mapChatFinishReason(choice.FinishReason, msg.HasToolCalls()),
		Usage: models.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
			CachedTokens:     int(resp.Usage.PromptTokensDetails.CachedTokens),
		},
	}, nil
}

// buildChatMessages converts history to Chat Completions message params.
func buildChatMessages(history []models.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case models.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case models.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case models.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		case models.RoleAssistant:
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				assistant.Content.OfString = openai.String(m.Content)
			}
			for _, tc := range m.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: tc.Arguments,
						},
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		}
	}
	return out
}

// buildChatTools converts tool specs to function tool definitions.
func buildChatTools(specs []tools.ToolSpec) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		out = append(out, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        spec.Name,
			Description: openai.String(spec.Description),
			Parameters:  shared.FunctionParameters(spec.JSONSchema()),
		}))
	}
	return out
}

func mapChatFinishReason(reason string, hasToolCalls bool) models.FinishReason {
	switch reason {
	case "tool_calls", "function_call":
		return models.FinishReasonToolCalls
	case "length":
		return models.FinishReasonLength
	case "content_filter":
		return models.FinishReasonContentFilter
	case "stop":
		return models.FinishReasonStop
	}
	if hasToolCalls {
		return models.FinishReasonToolCalls
	}
	return models.FinishReasonStop
}

func (c *OpenAIClient) classifyError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return classifyError(c.provider, apiErr.StatusCode, err)
	}
	return classifyError(c.provider, 0, err)
}
