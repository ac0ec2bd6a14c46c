package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Protocol-Lattice/research-agent/src/cache"
)

// CachedProvider wraps a Provider and memoizes replies to identical requests.
// Errors are never cached.
type CachedProvider struct {
	Provider Provider
	Cache    *cache.LRU[AssistantMessage]
}

// NewCachedProvider caches up to size replies for ttl.
func NewCachedProvider(p Provider, size int, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		Provider: p,
		Cache:    cache.NewLRU[AssistantMessage](size, ttl),
	}
}

// Chat checks the cache before calling the wrapped provider.
func (c *CachedProvider) Chat(ctx context.Context, req ChatRequest) (AssistantMessage, error) {
	key, err := requestKey(req)
	if err != nil {
		return c.Provider.Chat(ctx, req)
	}
	if msg, ok := c.Cache.Get(key); ok {
		return msg, nil
	}

	msg, err := c.Provider.Chat(ctx, req)
	if err != nil {
		return AssistantMessage{}, err
	}
	c.Cache.Set(key, msg)
	return msg, nil
}

type keyedMessage struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content,omitempty"`
	CallID    string     `json:"call_id,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

func requestKey(req ChatRequest) (string, error) {
	msgs := make([]keyedMessage, 0, len(req.Conversation))
	for _, msg := range req.Conversation {
		km := keyedMessage{Role: msg.Role()}
		switch m := msg.(type) {
		case SystemMessage:
			km.Content = m.Content
		case UserMessage:
			km.Content = m.Content
		case AssistantMessage:
			km.Content = m.Content
			km.ToolCalls = m.ToolCalls
		case ToolMessage:
			km.Content = m.Content
			km.CallID = m.CallID
		}
		msgs = append(msgs, km)
	}
	conv, err := json.Marshal(msgs)
	if err != nil {
		return "", err
	}
	tools, err := json.Marshal(req.Tools)
	if err != nil {
		return "", err
	}
	settings := fmt.Sprintf("%s|%g|%s|%t", req.Model, req.Temperature, req.Reasoning, req.Thinking)
	return cache.HashKey(settings, string(tools), string(conv)), nil
}

var _ Provider = (*CachedProvider)(nil)
