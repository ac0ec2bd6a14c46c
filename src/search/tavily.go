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

// DefaultTavilyEndpoint is the Tavily search API.
const DefaultTavilyEndpoint = "https://api.tavily.com/search"

// Tavily calls the Tavily search API and asks for the raw page content.
type Tavily struct {
	APIKey   string
	Endpoint string
	Logger   *slog.Logger
	client   *http.Client
}

// NewTavily constructs a Tavily backend.
func NewTavily(apiKey string) *Tavily {
	return NewTavilyWithClient(apiKey, &http.Client{Timeout: 30 * time.Second})
}

// NewTavilyWithClient constructs a Tavily backend using the supplied HTTP client.
func NewTavilyWithClient(apiKey string, client *http.Client) *Tavily {
	return &Tavily{APIKey: apiKey, Endpoint: DefaultTavilyEndpoint, Logger: slog.Default(), client: client}
}

type tavilyResponse struct {
	Results []struct {
		Title      string  `json:"title"`
		URL        string  `json:"url"`
		RawContent *string `json:"raw_content"`
	} `json:"results"`
}

// Search posts a query to Tavily.
func (t *Tavily) Search(ctx context.Context, req Request) ([]Result, error) {
	if strings.TrimSpace(t.APIKey) == "" {
		return nil, fmt.Errorf("tavily: %w", ErrMissingAPIKey)
	}

	payload, err := json.Marshal(map[string]any{
		"query":               req.Query,
		"max_results":         req.Limit(),
		"include_raw_content": true,
	})
	if err != nil {
		return nil, fmt.Errorf("tavily: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("tavily: new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+t.APIKey)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tavily: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Service: "tavily", StatusCode: resp.StatusCode}
	}

	var decoded tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}

	results := make([]Result, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		res := Result{Title: r.Title, URL: r.URL}
		if r.RawContent != nil {
			res.Content = *r.RawContent
		}
		results = append(results, res)
	}
	logPreview(t.Logger, "tavily", req.Query, results)
	return results, nil
}

const previewLen = 300

// logPreview logs each hit with the first characters of its content.
func logPreview(logger *slog.Logger, service, query string, results []Result) {
	if logger == nil {
		return
	}
	for i, r := range results {
		preview := "EMPTY"
		if r.Content != "" {
			preview = truncate(r.Content, previewLen)
		}
		logger.Debug("search result",
			slog.String("service", service),
			slog.String("query", query),
			slog.Int("rank", i+1),
			slog.String("title", r.Title),
			slog.String("url", r.URL),
			slog.String("preview", preview))
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
