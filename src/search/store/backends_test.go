package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Protocol-Lattice/research-agent/src/search"
)

var sample = []search.Result{
	{Title: "Surface codes", URL: "https://a.example", Content: "threshold crossed"},
	{Title: "Cat qubits", URL: "https://b.example", Content: "biased noise"},
}

func TestExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Nil(t, expiry(now, 0))
	assert.Nil(t, expiry(now, -time.Second))

	deadline := expiry(now, time.Hour)
	require.NotNil(t, deadline)
	assert.Equal(t, now.Add(time.Hour), *deadline)

	assert.False(t, expired(nil, now))
	assert.False(t, expired(deadline, now.Add(59*time.Minute)))
	assert.True(t, expired(deadline, now.Add(time.Hour)))
}

func newTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := NewRedis(context.Background(), "redis://"+mr.Addr(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestRedisStoreRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, time.Minute)

	_, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Put(ctx, "k", sample))
	got, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sample, got)

	assert.True(t, mr.Exists("research-agent:k"))
	assert.Equal(t, time.Minute, mr.TTL("research-agent:k"))

	mr.FastForward(2 * time.Minute)
	_, ok, err = r.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "expired entries are misses")
}

func TestRedisStoreRejectsCorruptEntries(t *testing.T) {
	r, mr := newTestRedis(t, 0)
	require.NoError(t, mr.Set("research-agent:bad", "not json"))

	_, ok, err := r.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisStoreBacksCachedSearch(t *testing.T) {
	r, _ := newTestRedis(t, time.Minute)
	calls := 0
	backend := search.BackendFunc(func(context.Context, search.Request) ([]search.Result, error) {
		calls++
		return sample, nil
	})
	c := search.NewCached(backend, r)

	for i := 0; i < 2; i++ {
		got, err := c.Search(context.Background(), search.Request{Query: "Quantum  Error Correction"})
		require.NoError(t, err)
		assert.Equal(t, sample, got)
	}
	assert.Equal(t, 1, calls)
}

func TestNewRedisFailsWithoutServer(t *testing.T) {
	_, err := NewRedis(context.Background(), "redis://127.0.0.1:1", time.Minute)
	assert.Error(t, err)
}

// The Postgres and Mongo stores need a live server; point
// RESEARCH_TEST_POSTGRES_DSN or RESEARCH_TEST_MONGO_URI at one to run them.

func TestPostgresStoreRoundTripAndExpiry(t *testing.T) {
	dsn := os.Getenv("RESEARCH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("RESEARCH_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	p, err := NewPostgres(ctx, dsn, time.Minute)
	require.NoError(t, err)
	t.Cleanup(p.Close)

	key := "test:" + uuid.NewString()
	t.Cleanup(func() { _, _ = p.DB.Exec(context.Background(), `DELETE FROM search_cache WHERE key = $1`, key) })

	_, ok, err := p.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.Put(ctx, key, sample[:1]))
	require.NoError(t, p.Put(ctx, key, sample))
	got, ok, err := p.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sample, got, "upsert replaces the previous entry")

	p.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, ok, err = p.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "expired rows are misses")
}

func TestMongoStoreRoundTripAndExpiry(t *testing.T) {
	uri := os.Getenv("RESEARCH_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("RESEARCH_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	m, err := NewMongo(ctx, uri, "research_agent_test", "search_cache", time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	key := "test:" + uuid.NewString()
	t.Cleanup(func() { _, _ = m.collection.DeleteOne(context.Background(), map[string]any{"_id": key}) })

	_, ok, err := m.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Put(ctx, key, sample[:1]))
	require.NoError(t, m.Put(ctx, key, sample))
	got, ok, err := m.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sample, got, "upsert replaces the previous entry")

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, ok, err = m.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "expired documents are misses")
}
