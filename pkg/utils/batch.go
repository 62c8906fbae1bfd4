package utils

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Chunk splits items into fixed-size groups, preserving order. The final
// group may be shorter.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		if len(items) == 0 {
			return nil
		}
		return [][]T{items}
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}

// ForEachBatch runs fn over items in batches of batchSize with all batch
// members in flight concurrently and a join barrier between batches.
// fn errors do not cancel siblings and are not propagated; per-item failure
// handling belongs inside fn. Batch order is preserved; order within a batch
// is not.
func ForEachBatch[T any](ctx context.Context, items []T, batchSize int, fn func(ctx context.Context, item T)) {
	for _, batch := range Chunk(items, batchSize) {
		g, gctx := errgroup.WithContext(ctx)
		for _, item := range batch {
			item := item
			g.Go(func() error {
				fn(gctx, item)
				return nil
			})
		}
		// fn never returns an error; Wait is purely the join barrier.
		_ = g.Wait()
	}
}
