package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Protocol-Lattice/research-agent/src/search"
)

// Redis stores results as JSON strings with an expiry.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis connects to the server at url (redis://...) and pings it.
func NewRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	if url == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisWithClient(client, ttl), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, prefix: "research-agent:"}
}

func (r *Redis) Get(ctx context.Context, key string) ([]search.Result, bool, error) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var results []search.Result
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, false, fmt.Errorf("decode cached results: %w", err)
	}
	return results, true, nil
}

func (r *Redis) Put(ctx context.Context, key string, results []search.Result) error {
	raw, err := json.Marshal(results)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefix+key, raw, r.ttl).Err()
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

var _ search.Store = (*Redis)(nil)
