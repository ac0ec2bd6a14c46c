package models

import (
	"context"
	"encoding/json"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider uses Anthropic's Messages API with tool use.
type AnthropicProvider struct {
	Client    *anthropic.Client
	MaxTokens int64
}

// NewAnthropicProvider builds a client for apiKey.
func NewAnthropicProvider(apiKey string) *AnthropicProvider {
	cl := anthropic.NewClient(anthropicopt.WithAPIKey(apiKey))
	return &AnthropicProvider{Client: &cl, MaxTokens: 4096}
}

// Chat performs one Messages API call.
func (a *AnthropicProvider) Chat(ctx context.Context, req ChatRequest) (AssistantMessage, error) {
	system, turns := splitSystem(req.Conversation)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   a.MaxTokens,
		Messages:    toAnthropicMessages(turns),
		Temperature: anthropic.Float(float64(req.Temperature)),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	for _, spec := range req.Tools {
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        spec.Name,
				Description: anthropic.String(spec.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: spec.InputSchema()["properties"],
					Required:   spec.RequiredParameters(),
				},
			},
		})
	}

	msg, err := a.Client.Messages.New(ctx, params)
	if err != nil {
		return AssistantMessage{}, transportError(BackendAnthropic, err)
	}

	var (
		text     strings.Builder
		thinking strings.Builder
		out      AssistantMessage
	)
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		case anthropic.ThinkingBlock:
			thinking.WriteString(b.Thinking)
		case anthropic.ToolUseBlock:
			args := map[string]any{}
			if len(b.Input) > 0 {
				_ = json.Unmarshal(b.Input, &args)
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{ID: b.ID, Name: b.Name, Arguments: args})
		}
	}
	out.Content = text.String()
	out.Thinking = thinking.String()
	out.ToolCalls = ensureCallIDs(out.ToolCalls)
	out.Raw = msg.RawJSON()
	return out, nil
}

// toAnthropicMessages converts turns, grouping consecutive tool results into
// one user message as the API expects.
func toAnthropicMessages(turns Conversation) []anthropic.MessageParam {
	var (
		out     []anthropic.MessageParam
		results []anthropic.ContentBlockParamUnion
	)
	flush := func() {
		if len(results) > 0 {
			out = append(out, anthropic.NewUserMessage(results...))
			results = nil
		}
	}
	for _, msg := range turns {
		switch m := msg.(type) {
		case UserMessage:
			flush()
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case AssistantMessage:
			flush()
			var blocks []anthropic.ContentBlockParamUnion
			if strings.TrimSpace(m.Content) != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, tc.Arguments, tc.Name))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
		case ToolMessage:
			results = append(results, anthropic.NewToolResultBlock(m.CallID, m.Content, false))
		}
	}
	flush()
	return out
}

var _ Provider = (*AnthropicProvider)(nil)
