package models

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedProvider is returned when a model id matches no route.
	ErrUnsupportedProvider = errors.New("unsupported model provider")
	// ErrBackendNotConfigured is returned when a route matches but no client was supplied for it.
	ErrBackendNotConfigured = errors.New("backend not configured")
)

// Reasoning levels understood by the backends that support them.
const (
	ReasoningLow    = "low"
	ReasoningMedium = "medium"
	ReasoningHigh   = "high"
)

// ChatRequest is one non-streaming inference call.
type ChatRequest struct {
	Model        string
	Conversation Conversation
	Tools        []ToolSpec
	Temperature  float32
	Reasoning    string
	Thinking     bool
}

// Provider is an inference backend. Implementations normalize whatever the
// backend returns into an AssistantMessage and report transport failures as
// *TransportError.
type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (AssistantMessage, error)
}

// TransportError reports that a backend could not be reached or answered
// with a non-success status.
type TransportError struct {
	Backend Backend
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport: %v", e.Backend, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func transportError(b Backend, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Backend: b, Err: err}
}
