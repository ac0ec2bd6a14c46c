package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ---------------------------- Google Gemini ----------------------------------

// GeminiProvider uses the Gemini API with function calling.
type GeminiProvider struct {
	Client *genai.Client
}

// NewGeminiProvider builds a client for apiKey.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing GOOGLE_API_KEY or GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &GeminiProvider{Client: client}, nil
}

// Close releases the underlying client.
func (g *GeminiProvider) Close() error {
	return g.Client.Close()
}

// Chat replays the conversation as chat history and sends the last turn.
func (g *GeminiProvider) Chat(ctx context.Context, req ChatRequest) (AssistantMessage, error) {
	system, turns := splitSystem(req.Conversation)

	model := g.Client.GenerativeModel(req.Model)
	model.SetTemperature(req.Temperature)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, spec := range req.Tools {
			decls = append(decls, geminiDeclaration(spec))
		}
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	contents := toGeminiContents(turns)
	if len(contents) == 0 {
		return AssistantMessage{}, errors.New("gemini: conversation has no turns")
	}
	cs := model.StartChat()
	cs.History = contents[:len(contents)-1]

	resp, err := cs.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		return AssistantMessage{}, transportError(BackendGemini, err)
	}

	out := AssistantMessage{Raw: renderRaw(resp)}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out, nil
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text.WriteString(string(p))
		case genai.FunctionCall:
			out.ToolCalls = append(out.ToolCalls, ToolCall{Name: p.Name, Arguments: p.Args})
		}
	}
	out.Content = text.String()
	out.ToolCalls = ensureCallIDs(out.ToolCalls)
	return out, nil
}

func geminiDeclaration(spec ToolSpec) *genai.FunctionDeclaration {
	props := make(map[string]*genai.Schema, len(spec.Parameters))
	for name, p := range spec.Parameters {
		props[name] = &genai.Schema{Type: geminiType(p.Type), Description: p.Description}
	}
	return &genai.FunctionDeclaration{
		Name:        spec.Name,
		Description: spec.Description,
		Parameters: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: props,
			Required:   spec.RequiredParameters(),
		},
	}
}

func geminiType(t string) genai.Type {
	switch strings.ToLower(t) {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// toGeminiContents maps turns onto user/model contents. Gemini has no call
// ids, so tool results are matched back to the requesting call by name.
func toGeminiContents(turns Conversation) []*genai.Content {
	var out []*genai.Content
	appendParts := func(role string, parts ...genai.Part) {
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = append(out[n-1].Parts, parts...)
			return
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}
	for _, msg := range turns {
		switch m := msg.(type) {
		case UserMessage:
			appendParts("user", genai.Text(m.Content))
		case AssistantMessage:
			var parts []genai.Part
			if strings.TrimSpace(m.Content) != "" {
				parts = append(parts, genai.Text(m.Content))
			}
			for _, tc := range m.ToolCalls {
				parts = append(parts, genai.FunctionCall{Name: tc.Name, Args: tc.Arguments})
			}
			if len(parts) > 0 {
				appendParts("model", parts...)
			}
		case ToolMessage:
			appendParts("user", genai.FunctionResponse{
				Name:     m.Name,
				Response: map[string]any{"content": m.Content},
			})
		}
	}
	return out
}

var _ Provider = (*GeminiProvider)(nil)
