package llm

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mfateev/sandbox-agent/internal/models"
	"github.com/mfateev/sandbox-agent/internal/tools"
)

// defaultAnthropicMaxTokens is used when the model config leaves MaxTokens
// unset, since the Messages API requires it.
const defaultAnthropicMaxTokens = 4096

// AnthropicClient implements Client using Anthropic's Messages API.
type AnthropicClient struct {
	client anthropic.Client
}

// NewAnthropicClient creates an Anthropic client. The key defaults to
// ANTHROPIC_API_KEY.
func NewAnthropicClient(opts ClientOptions) *AnthropicClient {
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
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
	return &AnthropicClient{client: anthropic.NewClient(reqOpts...)}
}

// Provider returns the backend name used for labels and errors.
func (c *AnthropicClient) Provider() string {
	return models.ProviderAnthropic
}

// Call sends the conversation to the Messages API.
func (c *AnthropicClient) Call(ctx context.Context, request Request) (Response, error) {
	system, messages := buildAnthropicMessages(request.Messages)

	maxTokens := request.Model.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     selectAnthropicModel(request.Model.Model),
		MaxTokens: int64(maxTokens),
		System:    system,
		Messages:  messages,
	}
	if request.Model.Temperature > 0 {
		params.Temperature = anthropic.Float(request.Model.Temperature)
	}
	if len(request.Tools) > 0 {
		params.Tools = buildAnthropicTools(request.Tools)
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfAuto: &anthropic.ToolChoiceAutoParam{},
		}
	}

	response, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return Response{}, classifyAnthropicError(err)
	}

	msg, finishReason := parseAnthropicResponse(response)
	return Response{
		Message:      msg,
		FinishReason: finishReason,
		Usage: models.TokenUsage{
			PromptTokens:     int(response.Usage.InputTokens),
			CompletionTokens: int(response.Usage.OutputTokens),
			TotalTokens:      int(response.Usage.InputTokens + response.Usage.OutputTokens),
			CachedTokens:     int(response.Usage.CacheReadInputTokens),
		},
	}, nil
}

// selectAnthropicModel maps dotted aliases to the API's model identifiers.
// Unrecognized names are passed through unchanged.
func selectAnthropicModel(modelName string) anthropic.Model {
	switch modelName {
	case "", "claude-sonnet-4.5":
		return anthropic.ModelClaudeSonnet4_5_20250929
	case "claude-opus-4.6":
		return anthropic.ModelClaudeOpus4_6
	case "claude-haiku-4.5":
		return anthropic.ModelClaudeHaiku4_5_20251001
	default:
		return anthropic.Model(modelName)
	}
}

// buildAnthropicMessages splits system text from the turn list. Consecutive
// tool results are merged into one user turn, as the API requires results
// for a multi-call assistant turn to arrive together.
func buildAnthropicMessages(history []models.Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	messages := make([]anthropic.MessageParam, 0, len(history))

	for _, m := range history {
		switch m.Role {
		case models.RoleSystem:
			system = append(system, anthropic.TextBlockParam{
				Text: m.Content,
				CacheControl: anthropic.CacheControlEphemeralParam{
					TTL: anthropic.CacheControlEphemeralTTLTTL5m,
				},
			})

		case models.RoleUser:
			messages = append(messages, anthropic.MessageParam{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{{
					OfText: &anthropic.TextBlockParam{Text: m.Content},
				}},
			})

		case models.RoleAssistant:
			content := make([]anthropic.ContentBlockParamUnion, 0, len(m.ToolCalls)+1)
			if m.Content != "" {
				content = append(content, anthropic.ContentBlockParamUnion{
					OfText: &anthropic.TextBlockParam{Text: m.Content},
				})
			}
			for _, tc := range m.ToolCalls {
				content = append(content, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    tc.ID,
						Name:  tc.Name,
						Input: toolInput(tc.Arguments),
					},
				})
			}
			if len(content) > 0 {
				messages = append(messages, anthropic.MessageParam{
					Role:    anthropic.MessageParamRoleAssistant,
					Content: content,
				})
			}

		case models.RoleTool:
			block := anthropic.ContentBlockParamUnion{
				OfToolResult: &anthropic.ToolResultBlockParam{
					ToolUseID: m.ToolCallID,
					Content: []anthropic.ToolResultBlockParamContentUnion{{
						OfText: &anthropic.TextBlockParam{Text: m.Content},
					}},
					IsError: anthropic.Bool(isErrorPayload(m.Content)),
				},
			}
			if n := len(messages); n > 0 && isToolResultTurn(messages[n-1]) {
				messages[n-1].Content = append(messages[n-1].Content, block)
				continue
			}
			messages = append(messages, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{block},
			})
		}
	}

	return system, messages
}

func isToolResultTurn(m anthropic.MessageParam) bool {
	if m.Role != anthropic.MessageParamRoleUser || len(m.Content) == 0 {
		return false
	}
	return m.Content[0].OfToolResult != nil
}

// toolInput decodes the raw argument text. Malformed arguments are sent as
// an empty object; the executor has already reported them to the model.
func toolInput(arguments string) map[string]interface{} {
	input := map[string]interface{}{}
	if strings.TrimSpace(arguments) == "" {
		return input
	}
	if err := json.Unmarshal([]byte(arguments), &input); err != nil || input == nil {
		return map[string]interface{}{}
	}
	return input
}

// isErrorPayload reports whether a serialized tool result is a failure
// envelope.
func isErrorPayload(content string) bool {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &envelope); err != nil {
		return false
	}
	_, ok := envelope["error"]
	return ok
}

// buildAnthropicTools converts tool specs to Anthropic tool definitions.
func buildAnthropicTools(specs []tools.ToolSpec) []anthropic.ToolUnionParam {
	toolDefs := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		schema := spec.JSONSchema()
		inputSchema := anthropic.ToolInputSchemaParam{
			Properties: schema["properties"],
		}
		if required, ok := schema["required"].([]string); ok && len(required) > 0 {
			inputSchema.Required = required
		}
		toolDefs = append(toolDefs, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        spec.Name,
				Description: anthropic.String(spec.Description),
				InputSchema: inputSchema,
			},
		})
	}
	return toolDefs
}

// parseAnthropicResponse collapses the content blocks into one assistant
// message.
func parseAnthropicResponse(response *anthropic.Message) (models.Message, models.FinishReason) {
	msg := models.Message{Role: models.RoleAssistant}
	var text []string

	for _, contentBlock := range response.Content {
		switch contentBlock.Type {
		case "text":
			if t := contentBlock.AsText().Text; t != "" {
				text = append(text, t)
			}
		case "tool_use":
			toolBlock := contentBlock.AsToolUse()
			argsJSON, err := json.Marshal(toolBlock.Input)
			if err != nil || string(argsJSON) == "null" {
				argsJSON = []byte("{}")
			}
			msg.ToolCalls = append(msg.ToolCalls, models.ToolCall{
				ID:        toolBlock.ID,
				Name:      toolBlock.Name,
				Arguments: string(argsJSON),
			})
		}
	}
	msg.Content = strings.Join(text, "\n")

	finishReason := models.FinishReasonStop
	switch response.StopReason {
	case anthropic.StopReasonToolUse:
		finishReason = models.FinishReasonToolCalls
	case anthropic.StopReasonMaxTokens:
		finishReason = models.FinishReasonLength
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence:
		finishReason = models.FinishReasonStop
	default:
		if msg.HasToolCalls() {
			finishReason = models.FinishReasonToolCalls
		}
	}
	return msg, finishReason
}

// classifyAnthropicError categorizes an Anthropic API error using the HTTP
// status code when available.
func classifyAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return classifyError(models.ProviderAnthropic, apiErr.StatusCode, err)
	}
	return classifyError(models.ProviderAnthropic, 0, err)
}
