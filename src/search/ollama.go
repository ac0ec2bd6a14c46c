package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultOllamaHost is the hosted Ollama service that serves web search.
const DefaultOllamaHost = "https://ollama.com"

// OllamaWebSearch queries the Ollama web search API.
type OllamaWebSearch struct {
	Host   string
	APIKey string
	Logger *slog.Logger
	client *http.Client
}

// NewOllamaWebSearch constructs the backend. An empty host uses DefaultOllamaHost.
func NewOllamaWebSearch(host, apiKey string) *OllamaWebSearch {
	if strings.TrimSpace(host) == "" {
		host = DefaultOllamaHost
	}
	return &OllamaWebSearch{
		Host:   host,
		APIKey: apiKey,
		Logger: slog.Default(),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Search posts the query to /api/web_search.
func (o *OllamaWebSearch) Search(ctx context.Context, req Request) ([]Result, error) {
	endpoint := fmt.Sprintf("%s/api/web_search", strings.TrimRight(o.Host, "/"))

	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(map[string]any{"query": req.Query, "max_results": req.Limit()}); err != nil {
		return nil, fmt.Errorf("ollama web search: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, buf)
	if err != nil {
		return nil, fmt.Errorf("ollama web search: new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.APIKey)
	}

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama web search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, &StatusError{Service: "ollama web search", StatusCode: resp.StatusCode}
	}

	var data struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("ollama web search: decode response: %w", err)
	}

	results := make([]Result, 0, len(data.Results))
	for _, r := range data.Results {
		results = append(results, Result{Title: r.Title, URL: r.URL, Content: r.Content})
	}
	if limit := req.Limit(); len(results) > limit {
		results = results[:limit]
	}
	logPreview(o.Logger, "ollama", req.Query, results)
	return results, nil
}
