// Package store provides search result stores backed by memory, Redis,
// Postgres and MongoDB.
package store

import (
	"context"
	"time"

	"github.com/Protocol-Lattice/research-agent/src/cache"
	"github.com/Protocol-Lattice/research-agent/src/search"
)

// Memory keeps results in an in-process LRU.
type Memory struct {
	lru *cache.LRU[[]search.Result]
}

// NewMemory creates a store of the given capacity; ttl of zero never expires.
func NewMemory(capacity int, ttl time.Duration) *Memory {
	return &Memory{lru: cache.NewLRU[[]search.Result](capacity, ttl)}
}

func (m *Memory) Get(_ context.Context, key string) ([]search.Result, bool, error) {
	results, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]search.Result(nil), results...), true, nil
}

func (m *Memory) Put(_ context.Context, key string, results []search.Result) error {
	m.lru.Set(key, append([]search.Result(nil), results...))
	return nil
}

var _ search.Store = (*Memory)(nil)
