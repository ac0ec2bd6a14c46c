// Package search defines the web search capability and its backends.
package search

import (
	"context"
	"errors"
	"fmt"
)

// DefaultMaxResults is used when a request does not set MaxResults.
const DefaultMaxResults = 8

// ErrMissingAPIKey is returned by backends that need a key but have none.
var ErrMissingAPIKey = errors.New("search: API key is missing")

// Result is one web search hit. Content holds the raw page text and may be
// empty; curation may later replace it with a summary.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"raw_content"`
}

// Request is a single search query.
type Request struct {
	Query      string
	MaxResults int
}

// Limit returns MaxResults or the default.
func (r Request) Limit() int {
	if r.MaxResults <= 0 {
		return DefaultMaxResults
	}
	return r.MaxResults
}

// Backend executes a query and returns results in ranking order.
type Backend interface {
	Search(ctx context.Context, req Request) ([]Result, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, req Request) ([]Result, error)

// Search calls f.
func (f BackendFunc) Search(ctx context.Context, req Request) ([]Result, error) {
	return f(ctx, req)
}

// StatusError reports a non-success HTTP reply from a search service.
type StatusError struct {
	Service    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected http status %d", e.Service, e.StatusCode)
}
