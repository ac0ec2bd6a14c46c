package models

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAITestServer(t *testing.T, status int, reply string, seen *map[string]any) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		if seen != nil {
			_ = json.Unmarshal(body, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return NewOpenAIProvider("test-key", srv.URL+"/v1")
}

func TestOpenAIProviderNormalizesToolCalls(t *testing.T) {
	var seen map[string]any
	p := newOpenAITestServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "gpt-4.1",
		"choices": [{
			"index": 0,
			"finish_reason": "tool_calls",
			"message": {
				"role": "assistant",
				"content": "",
				"tool_calls": [{"id": "call_abc", "type": "function", "function": {"name": "web_search", "arguments": "{\"query\":\"qubits\",\"query_goal\":\"news\"}"}}]
			}
		}]
	}`, &seen)

	spec := ToolSpec{Name: "web_search", Description: "search", Parameters: map[string]Parameter{"query": {Type: "string", Required: true}}}
	msg, err := p.Chat(context.Background(), ChatRequest{
		Model:        "gpt-4.1",
		Conversation: Conversation{SystemMessage{Content: "sys"}, UserMessage{Content: "q"}},
		Tools:        []ToolSpec{spec},
		Temperature:  0.3,
	})
	require.NoError(t, err)

	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "call_abc", msg.ToolCalls[0].ID)
	assert.Equal(t, "web_search", msg.ToolCalls[0].Name)
	assert.Equal(t, "qubits", msg.ToolCalls[0].Arguments["query"])

	assert.Equal(t, "gpt-4.1", seen["model"])
	assert.Len(t, seen["tools"], 1)
	_, hasEffort := seen["reasoning_effort"]
	assert.False(t, hasEffort)
}

func TestOpenAIProviderSendsToolCallIDs(t *testing.T) {
	var seen map[string]any
	p := newOpenAITestServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"Paris is the capital."}}]}`, &seen)

	conv := Conversation{
		UserMessage{Content: "q"},
		AssistantMessage{ToolCalls: []ToolCall{{ID: "call_1", Name: "web_search", Arguments: map[string]any{"query": "x"}}}},
		ToolMessage{CallID: "call_1", Name: "web_search", Content: "[]"},
	}
	msg, err := p.Chat(context.Background(), ChatRequest{Model: "gpt-4.1", Conversation: conv})
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital.", msg.Content)

	msgs := seen["messages"].([]any)
	require.Len(t, msgs, 3)
	assert.Equal(t, "call_1", msgs[2].(map[string]any)["tool_call_id"])
	calls := msgs[1].(map[string]any)["tool_calls"].([]any)
	assert.Equal(t, "call_1", calls[0].(map[string]any)["id"])
}

func TestOpenAIProviderEmptyChoices(t *testing.T) {
	p := newOpenAITestServer(t, http.StatusOK, `{"choices":[]}`, nil)

	msg, err := p.Chat(context.Background(), ChatRequest{Model: "gpt-4.1", Conversation: Conversation{UserMessage{Content: "q"}}})
	require.NoError(t, err)
	assert.False(t, msg.HasContent())
	assert.False(t, msg.HasToolCalls())
	assert.NotEmpty(t, msg.Raw)
}

func TestOpenAIProviderTransportError(t *testing.T) {
	p := newOpenAITestServer(t, http.StatusUnauthorized, `{"error":{"message":"bad key","type":"invalid_request_error"}}`, nil)

	_, err := p.Chat(context.Background(), ChatRequest{Model: "gpt-4.1", Conversation: Conversation{UserMessage{Content: "q"}}})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, BackendOpenAI, te.Backend)
}
