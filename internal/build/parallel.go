package build

import (
	"context"
	"sync"
)

type unitResult[R any] struct {
	Value R
	Err   error
}

// runAll calls fn for every item with at most concurrency calls in flight and
// returns results in item order. A cancelled context stops units that have not
// started yet; they report ctx.Err(). Running units are never interrupted.
func runAll[T any, R any](ctx context.Context, items []T, concurrency int, fn func(context.Context, T) (R, error)) []unitResult[R] {
	if len(items) == 0 {
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}

	sem := make(chan struct{}, concurrency)
	results := make([]unitResult[R], len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if err := ctx.Err(); err != nil {
				results[i] = unitResult[R]{Err: err}
				return
			}
			v, err := fn(ctx, item)
			results[i] = unitResult[R]{Value: v, Err: err}
		}(i, item)
	}
	wg.Wait()
	return results
}
