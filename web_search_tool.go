package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Protocol-Lattice/research-agent/src/curate"
	"github.com/Protocol-Lattice/research-agent/src/search"
)

// WebSearchToolName is the name the model uses to request a search.
const WebSearchToolName = "web_search"

// WebSearchTool searches the web and curates the hits against the stated goal.
type WebSearchTool struct {
	Backend    search.Backend
	Curator    *curate.Curator
	MaxResults int
	Logger     *slog.Logger
}

// NewWebSearchTool wires a search backend to a curator. A nil curator applies
// only the static filter.
func NewWebSearchTool(backend search.Backend, curator *curate.Curator, maxResults int) *WebSearchTool {
	return &WebSearchTool{Backend: backend, Curator: curator, MaxResults: maxResults, Logger: slog.Default()}
}

func (t *WebSearchTool) Spec() ToolSpec {
	return ToolSpec{
		Name: WebSearchToolName,
		Description: "Search the web for information relevant to the user's query. " +
			"Use this when the user asks for recent information, factual data, or news.",
		Parameters: map[string]Parameter{
			"query": {
				Type:        "string",
				Description: "The search query or question to look up on the web.",
				Required:    true,
			},
			"query_goal": {
				Type: "string",
				Description: "Short description of what the goal of this web search is. " +
					"This goal is subsequently used to evaluate each search result.",
				Required: true,
			},
		},
	}
}

// Invoke runs the search and returns the curated results as a JSON array.
func (t *WebSearchTool) Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error) {
	query, _ := req.Arguments["query"].(string)
	goal, _ := req.Arguments["query_goal"].(string)
	query = strings.TrimSpace(query)
	goal = strings.TrimSpace(goal)
	if query == "" {
		return ToolResponse{}, &InvocationError{Tool: WebSearchToolName, CallID: req.CallID, Err: fmt.Errorf("%w: query", ErrMissingArgument)}
	}
	if t.Backend == nil {
		return ToolResponse{}, fmt.Errorf("web_search: no search backend configured")
	}

	logger := t.logger().With(slog.String("call_id", req.CallID), slog.String("query", query))
	logger.Info("web search requested", slog.String("goal", goal))

	raw, err := t.Backend.Search(ctx, search.Request{Query: query, MaxResults: t.MaxResults})
	if err != nil {
		return ToolResponse{}, fmt.Errorf("web_search: %w", err)
	}

	var results []search.Result
	if t.Curator != nil {
		results, err = t.Curator.Curate(ctx, raw, goal)
		if err != nil {
			return ToolResponse{}, fmt.Errorf("web_search: curate: %w", err)
		}
	} else {
		results = curate.StaticFilter(raw)
	}
	if results == nil {
		results = []search.Result{}
	}
	logger.Info("web search curated", slog.Int("found", len(raw)), slog.Int("kept", len(results)))

	payload, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return ToolResponse{}, fmt.Errorf("web_search: encode results: %w", err)
	}
	return ToolResponse{
		Content: string(payload),
		Metadata: map[string]string{
			"query":   query,
			"found":   strconv.Itoa(len(raw)),
			"results": strconv.Itoa(len(results)),
		},
	}, nil
}

func (t *WebSearchTool) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}

var _ Tool = (*WebSearchTool)(nil)
