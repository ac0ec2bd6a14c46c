package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPreservesOrder(t *testing.T) {
	items := []int{5, 1, 4, 2, 3}
	results, errs := Map(context.Background(), items, 3, func(_ context.Context, _ int, v int) (int, error) {
		time.Sleep(time.Duration(v) * time.Millisecond)
		return v * 10, nil
	})

	assert.Equal(t, []int{50, 10, 40, 20, 30}, results)
	assert.NoError(t, FirstError(errs))
}

func TestMapBoundsConcurrency(t *testing.T) {
	var inFlight, peak int32
	items := make([]int, 20)

	Map(context.Background(), items, 4, func(_ context.Context, _ int, _ int) (struct{}, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}, nil
	})

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(4))
}

func TestMapKeepsPerItemErrors(t *testing.T) {
	boom := errors.New("boom")
	results, errs := Map(context.Background(), []string{"a", "b", "c"}, 1, func(_ context.Context, i int, v string) (string, error) {
		if i == 1 {
			return "", boom
		}
		return v + v, nil
	})

	assert.Equal(t, []string{"aa", "", "cc"}, results)
	require.Len(t, errs, 3)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], boom)
	assert.NoError(t, errs[2])
	assert.ErrorIs(t, FirstError(errs), boom)
}

func TestMapStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, errs := Map(ctx, []int{1, 2}, 1, func(context.Context, int, int) (int, error) {
		calls++
		return 0, nil
	})

	assert.Zero(t, calls)
	assert.ErrorIs(t, errs[0], context.Canceled)
	assert.ErrorIs(t, errs[1], context.Canceled)
}
