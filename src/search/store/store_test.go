package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Protocol-Lattice/research-agent/src/search"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(4, time.Minute)

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	in := []search.Result{{Title: "a", URL: "https://a"}}
	require.NoError(t, m.Put(ctx, "k", in))
	in[0].Title = "mutated"

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", got[0].Title)
}

func TestMemoryStoreBacksCachedSearch(t *testing.T) {
	calls := 0
	backend := search.BackendFunc(func(context.Context, search.Request) ([]search.Result, error) {
		calls++
		return []search.Result{{Title: "hit"}}, nil
	})
	c := search.NewCached(backend, NewMemory(8, 0))

	for i := 0; i < 3; i++ {
		_, err := c.Search(context.Background(), search.Request{Query: "q"})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls)
}

func TestConstructorsRejectMissingConfig(t *testing.T) {
	ctx := context.Background()
	_, err := NewRedis(ctx, "", time.Minute)
	assert.Error(t, err)
	_, err = NewMongo(ctx, "", "db", "c", time.Minute)
	assert.Error(t, err)
	_, err = NewMongo(ctx, "mongodb://localhost", "", "c", time.Minute)
	assert.Error(t, err)
}
