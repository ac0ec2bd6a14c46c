package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrScriptExhausted is returned when a ScriptedProvider has no replies left.
var ErrScriptExhausted = errors.New("scripted provider: no replies left")

// ScriptFunc computes a reply from the request. It lets a script react to the
// conversation it is given, e.g. to answer a relevance prompt.
type ScriptFunc func(req ChatRequest) (AssistantMessage, error)

// ScriptedProvider is a deterministic backend for tests and offline runs.
// Replies are consumed in order; when Fallback is set it answers once the
// queue is empty. Every request is recorded.
type ScriptedProvider struct {
	mu       sync.Mutex
	replies  []ScriptFunc
	Fallback ScriptFunc
	requests []ChatRequest
}

// NewScriptedProvider queues the given replies.
func NewScriptedProvider(replies ...AssistantMessage) *ScriptedProvider {
	s := &ScriptedProvider{}
	for _, r := range replies {
		s.Reply(r)
	}
	return s
}

// Reply queues a fixed reply.
func (s *ScriptedProvider) Reply(msg AssistantMessage) *ScriptedProvider {
	return s.Then(func(ChatRequest) (AssistantMessage, error) { return msg, nil })
}

// Fail queues an error.
func (s *ScriptedProvider) Fail(err error) *ScriptedProvider {
	return s.Then(func(ChatRequest) (AssistantMessage, error) { return AssistantMessage{}, err })
}

// Then queues a computed reply.
func (s *ScriptedProvider) Then(fn ScriptFunc) *ScriptedProvider {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, fn)
	return s
}

// Chat pops the next scripted reply.
func (s *ScriptedProvider) Chat(_ context.Context, req ChatRequest) (AssistantMessage, error) {
	s.mu.Lock()
	snapshot := req
	snapshot.Conversation = append(Conversation(nil), req.Conversation...)
	s.requests = append(s.requests, snapshot)

	var fn ScriptFunc
	if len(s.replies) > 0 {
		fn = s.replies[0]
		s.replies = s.replies[1:]
	} else {
		fn = s.Fallback
	}
	s.mu.Unlock()

	if fn == nil {
		return AssistantMessage{}, ErrScriptExhausted
	}
	msg, err := fn(snapshot)
	if err != nil {
		return AssistantMessage{}, err
	}
	msg.ToolCalls = ensureCallIDs(msg.ToolCalls)
	if msg.Raw == "" {
		msg.Raw = renderRaw(map[string]any{"content": msg.Content, "tool_calls": msg.ToolCalls})
	}
	return msg, nil
}

// Requests returns a copy of every request received so far.
func (s *ScriptedProvider) Requests() []ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChatRequest(nil), s.requests...)
}

// EchoScript answers with the last non-empty line of the final message,
// prefixed. Useful as a Fallback for offline demos.
func EchoScript(prefix string) ScriptFunc {
	if strings.TrimSpace(prefix) == "" {
		prefix = "Dummy response:"
	}
	return func(req ChatRequest) (AssistantMessage, error) {
		var text string
		switch m := req.Conversation.Last().(type) {
		case UserMessage:
			text = m.Content
		case SystemMessage:
			text = m.Content
		case ToolMessage:
			text = m.Content
		}
		last := "<empty prompt>"
		lines := strings.Split(text, "\n")
		for i := len(lines) - 1; i >= 0; i-- {
			if candidate := strings.TrimSpace(lines[i]); candidate != "" {
				last = candidate
				break
			}
		}
		return AssistantMessage{Content: fmt.Sprintf("%s %s", prefix, last)}, nil
	}
}

var _ Provider = (*ScriptedProvider)(nil)
