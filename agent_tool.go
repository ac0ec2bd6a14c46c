package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/universal-tool-calling-protocol/go-utcp/src/tools"
)

// DefaultUTCPToolLimit caps how many tools are imported from a UTCP client.
const DefaultUTCPToolLimit = 32

// UTCPClient is the subset of a UTCP client the agent needs to discover and
// call remote tools. utcp.UtcpClientInterface satisfies it.
type UTCPClient interface {
	SearchTools(query string, limit int) ([]tools.Tool, error)
	CallTool(ctx context.Context, toolName string, args map[string]any) (any, error)
}

var invalidToolName = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// UTCPTool exposes one tool discovered on a UTCP client to the model.
// The remote name ("provider.tool") is kept for calls; the model sees a
// name restricted to letters, digits, '_' and '-'.
type UTCPTool struct {
	client UTCPClient
	remote string
	spec   ToolSpec
}

// NewUTCPTool wraps a discovered UTCP tool.
func NewUTCPTool(client UTCPClient, remote tools.Tool) (*UTCPTool, error) {
	if client == nil {
		return nil, fmt.Errorf("utcp client is nil")
	}
	remoteName := strings.TrimSpace(remote.Name)
	if remoteName == "" {
		return nil, fmt.Errorf("utcp tool name is empty")
	}
	return &UTCPTool{
		client: client,
		remote: remoteName,
		spec: ToolSpec{
			Name:        utcpLocalName(remoteName),
			Description: remote.Description,
			Parameters:  utcpParameters(remote.Inputs),
		},
	}, nil
}

// Spec implements Tool.
func (t *UTCPTool) Spec() ToolSpec { return t.spec }

// Remote returns the name the tool is called by on the UTCP client.
func (t *UTCPTool) Remote() string { return t.remote }

// Invoke calls the remote tool and renders its result as text. Strings pass
// through; anything else is encoded as JSON.
func (t *UTCPTool) Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error) {
	out, err := t.client.CallTool(ctx, t.remote, req.Arguments)
	if err != nil {
		return ToolResponse{}, fmt.Errorf("utcp %s: %w", t.remote, err)
	}
	content, err := renderUTCPResult(out)
	if err != nil {
		return ToolResponse{}, fmt.Errorf("utcp %s: encode result: %w", t.remote, err)
	}
	return ToolResponse{
		Content:  content,
		Metadata: map[string]string{"utcp_tool": t.remote},
	}, nil
}

// ImportUTCPTools discovers tools matching query on client and wraps each one.
// Tools without a name are skipped.
func ImportUTCPTools(client UTCPClient, query string, limit int) ([]Tool, error) {
	if client == nil {
		return nil, fmt.Errorf("utcp client is nil")
	}
	if limit <= 0 {
		limit = DefaultUTCPToolLimit
	}
	found, err := client.SearchTools(query, limit)
	if err != nil {
		return nil, fmt.Errorf("search utcp tools: %w", err)
	}
	out := make([]Tool, 0, len(found))
	for _, remote := range found {
		tool, err := NewUTCPTool(client, remote)
		if err != nil {
			continue
		}
		out = append(out, tool)
	}
	return out, nil
}

func utcpLocalName(remote string) string {
	return strings.Trim(invalidToolName.ReplaceAllString(remote, "_"), "_")
}

func utcpParameters(schema tools.ToolInputOutputSchema) map[string]Parameter {
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}
	params := make(map[string]Parameter, len(schema.Properties))
	for name, raw := range schema.Properties {
		p := Parameter{Required: required[name]}
		if prop, ok := raw.(map[string]any); ok {
			p.Type, _ = prop["type"].(string)
			p.Description, _ = prop["description"].(string)
		}
		if p.Type == "" {
			p.Type = "string"
		}
		params[name] = p
	}
	for name := range required {
		if _, ok := params[name]; !ok {
			params[name] = Parameter{Type: "string", Required: true}
		}
	}
	return params
}

func renderUTCPResult(out any) (string, error) {
	switch v := out.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var _ Tool = (*UTCPTool)(nil)
