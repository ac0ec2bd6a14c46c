package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func BenchmarkLRU_Set(b *testing.B) {
	c := NewLRU[string](1000, 5*time.Minute)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(HashKey(string(rune(i))), "value")
	}
}

func BenchmarkLRU_ConcurrentAccess(b *testing.B) {
	c := NewLRU[string](1000, 5*time.Minute)
	for i := 0; i < 100; i++ {
		c.Set(HashKey(string(rune(i))), "value")
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := HashKey(string(rune(i % 100)))
			if i%2 == 0 {
				c.Get(key)
			} else {
				c.Set(key, "value")
			}
			i++
		}
	})
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int](3, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	val, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, val)

	c.Set("d", 4)

	_, ok = c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	assert.Equal(t, 3, c.Len())
}

func TestLRU_TTL(t *testing.T) {
	c := NewLRU[string](10, time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("key", "value")
	val, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", val)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("key")
	assert.False(t, ok, "entry should have expired")
	assert.Equal(t, 0, c.Len())
}

func TestLRU_ZeroTTLNeverExpires(t *testing.T) {
	c := NewLRU[string](2, 0)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	now = now.Add(24 * time.Hour)

	_, ok := c.Get("k")
	assert.True(t, ok)
}

func TestLRU_SetOverwritesAndDelete(t *testing.T) {
	c := NewLRU[string](2, time.Hour)
	c.Set("k", "one")
	c.Set("k", "two")

	val, _ := c.Get("k")
	assert.Equal(t, "two", val)
	assert.Equal(t, 1, c.Len())

	c.Delete("k")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestHashKeySeparatesParts(t *testing.T) {
	assert.NotEqual(t, HashKey("ab", "c"), HashKey("a", "bc"))
	assert.Equal(t, HashKey("x", "y"), HashKey("x", "y"))
}
