package models

import (
	"context"
	"fmt"
)

// QueryOptions are the per-call settings of Dispatcher.Query.
type QueryOptions struct {
	Model       string
	Tools       []ToolSpec
	Temperature float32
	Reasoning   string
	Thinking    bool
}

// Querier sends a conversation to whichever backend serves opts.Model.
type Querier interface {
	Query(ctx context.Context, conv Conversation, opts QueryOptions) (AssistantMessage, Conversation, error)
}

// Dispatcher routes conversations to the backend serving a model id.
// It holds no per-conversation state and is safe for concurrent use as long
// as the registered providers are.
type Dispatcher struct {
	providers map[Backend]Provider
}

// NewDispatcher builds a dispatcher over the given backend clients.
func NewDispatcher(providers map[Backend]Provider) *Dispatcher {
	d := &Dispatcher{providers: make(map[Backend]Provider, len(providers))}
	for b, p := range providers {
		if p != nil {
			d.providers[b] = p
		}
	}
	return d
}

// Resolve returns the provider that would serve model.
func (d *Dispatcher) Resolve(model string) (Provider, error) {
	backend, err := Route(model)
	if err != nil {
		return nil, err
	}
	p, ok := d.providers[backend]
	if !ok {
		return nil, fmt.Errorf("%w: %s (model %q)", ErrBackendNotConfigured, backend, model)
	}
	return p, nil
}

// Query sends conv to the backend for opts.Model, appends the reply to the
// conversation and returns both. On error the conversation is returned as given.
func (d *Dispatcher) Query(ctx context.Context, conv Conversation, opts QueryOptions) (AssistantMessage, Conversation, error) {
	p, err := d.Resolve(opts.Model)
	if err != nil {
		return AssistantMessage{}, conv, err
	}

	reply, err := p.Chat(ctx, ChatRequest{
		Model:        opts.Model,
		Conversation: conv,
		Tools:        opts.Tools,
		Temperature:  opts.Temperature,
		Reasoning:    opts.Reasoning,
		Thinking:     opts.Thinking,
	})
	if err != nil {
		return AssistantMessage{}, conv, err
	}
	return reply, conv.Append(reply), nil
}

var _ Querier = (*Dispatcher)(nil)
