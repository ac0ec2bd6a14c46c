package agent

import (
	"context"

	"github.com/Protocol-Lattice/research-agent/src/models"
)

// ToolSpec describes how the agent presents a tool to the model.
type ToolSpec = models.ToolSpec

// Parameter is one argument of a ToolSpec.
type Parameter = models.Parameter

// ToolRequest captures an invocation request for a tool.
type ToolRequest struct {
	CallID    string
	Arguments map[string]any
}

// ToolResponse represents the structured response returned by a tool.
type ToolResponse struct {
	Content  string
	Metadata map[string]string
}

// Tool exposes structured metadata and an invocation handler.
type Tool interface {
	Spec() ToolSpec
	Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error)
}

// ToolCatalog maintains an ordered set of tools, provides lookup by name and
// runs validated invocations.
type ToolCatalog interface {
	Register(tool Tool) error
	Lookup(name string) (Tool, ToolSpec, bool)
	Specs() []ToolSpec
	Invoke(ctx context.Context, call models.ToolCall) (ToolResponse, error)
}
