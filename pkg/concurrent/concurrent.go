package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Concurrent runs action for each item in its own goroutine, at most limit at
// a time (limit <= 0 means unbounded). It returns the first error; the context
// handed to the remaining actions is cancelled once one fails.
func Concurrent[T any](ctx context.Context, items []T, limit int, action func(context.Context, T) error) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return action(ctx, item)
		})
	}
	return g.Wait()
}

// ParallelMap applies mapFn to each item in parallel, preserving order.
func ParallelMap[T any, R any](ctx context.Context, items []T, limit int, mapFn func(context.Context, T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for idx, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := mapFn(ctx, item)
			if err != nil {
				return err
			}
			out[idx] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ParallelMust runs action for every item and waits. Panics are not recovered.
func ParallelMust[T any](items []T, limit int, action func(T)) {
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, item := range items {
		g.Go(func() error {
			action(item)
			return nil
		})
	}
	_ = g.Wait()
}
