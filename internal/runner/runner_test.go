package runner

import (
	"context"
	"testing"

	"leadsync/internal/calls"
	"leadsync/internal/enrichment"
)

type noopExtractor struct{}

func (noopExtractor) Extract(ctx context.Context, transcript string) (enrichment.Result, error) {
	return enrichment.Result{}, nil
}

func TestRunEnrichmentRecordsLatestSummary(t *testing.T) {
	repo := calls.NewMemoryRepo()
	pipeline := enrichment.NewPipeline(repo, noopExtractor{}, nil)

	// nil redis client: runs execute unlocked.
	r := New(nil, pipeline, nil, nil, nil)

	if _, latest, _ := r.Latest(); latest != nil {
		t.Fatalf("expected no summary before any run, got %+v", latest)
	}

	sum, err := r.RunEnrichment(context.Background())
	if err != nil {
		t.Fatalf("RunEnrichment: %v", err)
	}
	if sum.Selected != 0 {
		t.Fatalf("selected = %d, want 0 with an empty repo", sum.Selected)
	}

	_, latest, _ := r.Latest()
	if latest == nil {
		t.Fatal("expected a recorded summary after the run")
	}
	if latest.StartedAt.IsZero() {
		t.Fatal("recorded summary missing start time")
	}
}
