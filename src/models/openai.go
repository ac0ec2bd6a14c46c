package models

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider uses the hosted chat completions API.
type OpenAIProvider struct {
	Client *openai.Client
}

// NewOpenAIProvider builds a client for apiKey. A non-empty baseURL points the
// client at an OpenAI-compatible endpoint.
func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAIProvider{Client: openai.NewClientWithConfig(cfg)}
}

// Chat performs one chat completion with the given tools.
func (o *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (AssistantMessage, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toOpenAIMessages(req.Conversation),
		Temperature: req.Temperature,
	}
	if req.Thinking && req.Reasoning != "" {
		chatReq.ReasoningEffort = req.Reasoning
	}
	for _, spec := range req.Tools {
		chatReq.Tools = append(chatReq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.InputSchema(),
			},
		})
	}

	resp, err := o.Client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return AssistantMessage{}, transportError(BackendOpenAI, err)
	}
	if len(resp.Choices) == 0 {
		// Well formed but empty; the agent loop treats this as no output.
		return AssistantMessage{Raw: renderRaw(resp)}, nil
	}

	msg := resp.Choices[0].Message
	out := AssistantMessage{
		Content: msg.Content,
		Raw:     renderRaw(resp),
	}
	for _, tc := range msg.ToolCalls {
		if strings.TrimSpace(tc.Function.Name) == "" {
			continue
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: decodeArguments(tc.Function.Arguments),
		})
	}
	out.ToolCalls = ensureCallIDs(out.ToolCalls)
	return out, nil
}

func toOpenAIMessages(conv Conversation) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(conv))
	for _, msg := range conv {
		switch m := msg.(type) {
		case SystemMessage:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: m.Content})
		case UserMessage:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Content})
		case AssistantMessage:
			am := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content}
			for _, tc := range m.ToolCalls {
				am.ToolCalls = append(am.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: encodeArguments(tc.Arguments),
					},
				})
			}
			out = append(out, am)
		case ToolMessage:
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.Content,
				Name:       m.Name,
				ToolCallID: m.CallID,
			})
		}
	}
	return out
}

var _ Provider = (*OpenAIProvider)(nil)
