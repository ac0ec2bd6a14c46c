package models

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// ---------------------------- Ollama -----------------------------------------

// DefaultOllamaHost is used when no host is configured.
const DefaultOllamaHost = "http://localhost:11434"

// OllamaProvider talks to a local or remote Ollama server through its chat API.
type OllamaProvider struct {
	Client *ollama.Client
}

// NewOllamaProvider connects to host (DefaultOllamaHost when empty).
func NewOllamaProvider(host string, timeout time.Duration) (*OllamaProvider, error) {
	if strings.TrimSpace(host) == "" {
		host = DefaultOllamaHost
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	return &OllamaProvider{Client: ollama.NewClient(u, httpClient)}, nil
}

// The request is assembled in Ollama's JSON wire form and decoded into the
// client types, which keeps tool-call arguments and the think flag independent
// of how a given client release models them.
type ollamaWireMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Thinking  string           `json:"thinking,omitempty"`
	ToolCalls []ollamaWireCall `json:"tool_calls,omitempty"`
	ToolName  string           `json:"tool_name,omitempty"`
}

type ollamaWireCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type ollamaWireRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaWireMessage `json:"messages"`
	Tools    []map[string]any    `json:"tools,omitempty"`
	Stream   bool                `json:"stream"`
	Think    any                 `json:"think,omitempty"`
	Options  map[string]any      `json:"options,omitempty"`
}

func (o *OllamaProvider) buildRequest(req ChatRequest) (*ollama.ChatRequest, error) {
	wire := ollamaWireRequest{
		Model:   req.Model,
		Stream:  false,
		Options: map[string]any{"temperature": req.Temperature},
	}
	if req.Thinking {
		// gpt-oss takes a level, other thinking models take a boolean.
		if req.Reasoning != "" {
			wire.Think = req.Reasoning
		} else {
			wire.Think = true
		}
	}
	for _, spec := range req.Tools {
		wire.Tools = append(wire.Tools, spec.FunctionSchema())
	}
	for _, msg := range req.Conversation {
		switch m := msg.(type) {
		case SystemMessage:
			wire.Messages = append(wire.Messages, ollamaWireMessage{Role: string(RoleSystem), Content: m.Content})
		case UserMessage:
			wire.Messages = append(wire.Messages, ollamaWireMessage{Role: string(RoleUser), Content: m.Content})
		case AssistantMessage:
			wm := ollamaWireMessage{Role: string(RoleAssistant), Content: m.Content, Thinking: m.Thinking}
			for _, tc := range m.ToolCalls {
				var call ollamaWireCall
				call.Function.Name = tc.Name
				call.Function.Arguments = tc.Arguments
				wm.ToolCalls = append(wm.ToolCalls, call)
			}
			wire.Messages = append(wire.Messages, wm)
		case ToolMessage:
			wire.Messages = append(wire.Messages, ollamaWireMessage{Role: string(RoleTool), Content: m.Content, ToolName: m.Name})
		}
	}

	raw, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encode ollama request: %w", err)
	}
	var out ollama.ChatRequest
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("build ollama request: %w", err)
	}
	return &out, nil
}

// Chat performs one non-streaming chat call.
func (o *OllamaProvider) Chat(ctx context.Context, req ChatRequest) (AssistantMessage, error) {
	chatReq, err := o.buildRequest(req)
	if err != nil {
		return AssistantMessage{}, err
	}

	var (
		content  strings.Builder
		thinking strings.Builder
		calls    []ollama.ToolCall
		last     ollama.ChatResponse
	)
	err = o.Client.Chat(ctx, chatReq, func(resp ollama.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		thinking.WriteString(resp.Message.Thinking)
		calls = append(calls, resp.Message.ToolCalls...)
		last = resp
		return nil
	})
	if err != nil {
		return AssistantMessage{}, transportError(BackendOllama, err)
	}

	last.Message.Content = content.String()
	last.Message.Thinking = thinking.String()
	last.Message.ToolCalls = calls

	return AssistantMessage{
		Content:   last.Message.Content,
		Thinking:  last.Message.Thinking,
		ToolCalls: ensureCallIDs(decodeOllamaCalls(calls)),
		Raw:       renderRaw(last),
	}, nil
}

func decodeOllamaCalls(calls []ollama.ToolCall) []ToolCall {
	if len(calls) == 0 {
		return nil
	}
	raw, err := json.Marshal(calls)
	if err != nil {
		return nil
	}
	var wire []struct {
		ID string `json:"id"`
		ollamaWireCall
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil
	}
	out := make([]ToolCall, 0, len(wire))
	for _, w := range wire {
		if strings.TrimSpace(w.Function.Name) == "" {
			continue
		}
		out = append(out, ToolCall{ID: w.ID, Name: w.Function.Name, Arguments: w.Function.Arguments})
	}
	return out
}

var _ Provider = (*OllamaProvider)(nil)
