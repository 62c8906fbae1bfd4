package utils

import (
	"context"
	"sync"
	"testing"
)

func TestChunk(t *testing.T) {
	got := Chunk([]int{1, 2, 3, 4, 5}, 2)
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(got))
	}
	if len(got[0]) != 2 || len(got[2]) != 1 {
		t.Fatalf("unexpected chunk sizes: %v", got)
	}
	if got[2][0] != 5 {
		t.Fatalf("expected order preserved, got %v", got)
	}
	if Chunk([]int{}, 2) != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestForEachBatch_VisitsAll(t *testing.T) {
	var mu sync.Mutex
	seen := map[int]bool{}

	items := []int{1, 2, 3, 4, 5, 6, 7}
	ForEachBatch(context.Background(), items, 3, func(ctx context.Context, n int) {
		mu.Lock()
		seen[n] = true
		mu.Unlock()
	})

	if len(seen) != len(items) {
		t.Fatalf("expected all %d items visited, got %d", len(items), len(seen))
	}
}
