package concurrent

import (
	"context"
	"sync"
)

// Map applies fn to every item with at most limit calls in flight and returns
// the results and errors indexed like items. A limit of 1 or less runs the
// items sequentially in order on the calling goroutine.
//
// Items that never start because ctx is done get ctx.Err() as their error.
func Map[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, int, T) (R, error)) ([]R, []error) {
	results := make([]R, len(items))
	errs := make([]error, len(items))
	if len(items) == 0 {
		return results, errs
	}

	if limit <= 1 {
		for i, item := range items {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				continue
			}
			results[i], errs[i] = fn(ctx, i, item)
		}
		return results, errs
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, limit)

	for i, item := range items {
		wg.Add(1)
		go func(idx int, val T) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			case sem <- struct{}{}:
				defer func() { <-sem }()
			}
			results[idx], errs[idx] = fn(ctx, idx, val)
		}(i, item)
	}

	wg.Wait()
	return results, errs
}

// FirstError returns the first non-nil error in errs.
func FirstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
