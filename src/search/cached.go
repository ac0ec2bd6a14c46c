package search

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Protocol-Lattice/research-agent/src/cache"
)

// Store persists search results by key.
type Store interface {
	Get(ctx context.Context, key string) ([]Result, bool, error)
	Put(ctx context.Context, key string, results []Result) error
}

// CacheKey derives the store key for a request.
func CacheKey(req Request) string {
	query := strings.ToLower(strings.Join(strings.Fields(req.Query), " "))
	return "search:" + cache.HashKey(query, strconv.Itoa(req.Limit()))
}

// Cached wraps a Backend with a Store. Store failures are logged and the
// backend is queried as if the entry were missing.
type Cached struct {
	Backend Backend
	Store   Store
	Logger  *slog.Logger
}

// NewCached wraps backend with store.
func NewCached(backend Backend, store Store) *Cached {
	return &Cached{Backend: backend, Store: store, Logger: slog.Default()}
}

// Search serves from the store when possible.
func (c *Cached) Search(ctx context.Context, req Request) ([]Result, error) {
	key := CacheKey(req)
	if results, ok, err := c.Store.Get(ctx, key); err != nil {
		c.logger().Warn("search cache read failed", slog.String("key", key), slog.Any("error", err))
	} else if ok {
		c.logger().Debug("search cache hit", slog.String("query", req.Query))
		return results, nil
	}

	results, err := c.Backend.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.Store.Put(ctx, key, results); err != nil {
		c.logger().Warn("search cache write failed", slog.String("key", key), slog.Any("error", err))
	}
	return results, nil
}

func (c *Cached) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
