package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadsync/internal/calls"
	"leadsync/internal/provider"
)

type fakeLister struct {
	calls map[string][]provider.RawCall
	err   error
}

func (f *fakeLister) ListCalls(ctx context.Context, p provider.ListParams) ([]provider.RawCall, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.calls[p.AgentID], nil
}

type fakeDirectory struct {
	agents []string
	err    error
}

func (f *fakeDirectory) AgentIDs(ctx context.Context) ([]string, error) {
	return f.agents, f.err
}

func (f *fakeDirectory) UserIDsByAgentID(ctx context.Context, agentID string) ([]string, error) {
	return nil, nil
}

func str(s string) *string { return &s }

func snapshot(id, status, transcript string) provider.RawCall {
	ts := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	return provider.RawCall{
		CallID:         id,
		CallStatus:     status,
		Transcript:     str(transcript),
		StartTimestamp: &ts,
	}
}

func TestIngestForAgent_Counters(t *testing.T) {
	repo := calls.NewMemoryRepo()
	lister := &fakeLister{calls: map[string][]provider.RawCall{
		"agent-1": {
			snapshot("c1", "ended", "need an urgent repair"),
			snapshot("c2", "ended", "what is the price"),
		},
	}}
	p := NewPipeline(lister, repo, &fakeDirectory{}, nil)

	res, err := p.IngestForAgent(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Fetched != 2 || res.Existing != 0 || res.Processed != 2 || res.Succeeded != 2 || res.Failed != 0 {
		t.Fatalf("unexpected counters: %+v", res)
	}

	r, err := repo.Get(context.Background(), "c1")
	if err != nil {
		t.Fatalf("record not stored: %v", err)
	}
	if r.AgentID != "agent-1" {
		t.Fatalf("expected agent_id set, got %q", r.AgentID)
	}
	if r.Intent == nil || *r.Intent != "Emergency" {
		t.Fatalf("expected Emergency intent, got %v", r.Intent)
	}
	if r.LeadType == nil || *r.LeadType != "Emergency" {
		t.Fatalf("expected Emergency lead type, got %v", r.LeadType)
	}
}

func TestIngestForAgent_IdempotentReRun(t *testing.T) {
	repo := calls.NewMemoryRepo()
	lister := &fakeLister{calls: map[string][]provider.RawCall{
		"agent-1": {
			snapshot("c1", "ended", "hello"),
			snapshot("c2", "ongoing", "hello"),
		},
	}}
	p := NewPipeline(lister, repo, &fakeDirectory{}, nil)

	if _, err := p.IngestForAgent(context.Background(), "agent-1"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	before, _ := repo.Get(context.Background(), "c1")

	res, err := p.IngestForAgent(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(repo.Records) != 2 {
		t.Fatalf("expected stable record count, got %d", len(repo.Records))
	}
	// Terminal record untouched, ongoing record re-processed.
	if res.Processed != 1 {
		t.Fatalf("expected only the ongoing record re-processed, got %d", res.Processed)
	}
	after, _ := repo.Get(context.Background(), "c1")
	if before.UpdatedAt != after.UpdatedAt {
		t.Fatalf("terminal record must not be rewritten on re-ingestion")
	}
}

func TestIngestForAgent_NoActivity(t *testing.T) {
	repo := calls.NewMemoryRepo()
	p := NewPipeline(&fakeLister{}, repo, &fakeDirectory{}, nil)

	res, err := p.IngestForAgent(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("empty fetch is not an error: %v", err)
	}
	if res.Fetched != 0 || res.Processed != 0 {
		t.Fatalf("unexpected counters: %+v", res)
	}
}

func TestIngestForAgent_CapsPerRun(t *testing.T) {
	var snaps []provider.RawCall
	for i := 0; i < maxPerRun+20; i++ {
		snaps = append(snaps, snapshot("c"+string(rune('A'+i/26))+string(rune('a'+i%26)), "ended", "hi"))
	}
	repo := calls.NewMemoryRepo()
	lister := &fakeLister{calls: map[string][]provider.RawCall{"agent-1": snaps}}
	p := NewPipeline(lister, repo, &fakeDirectory{}, nil)

	res, err := p.IngestForAgent(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Processed != maxPerRun {
		t.Fatalf("expected cap of %d, got %d", maxPerRun, res.Processed)
	}
}

func TestIngestForAgent_FailedChunkCounted(t *testing.T) {
	repo := calls.NewMemoryRepo()
	repo.FailUpsert = true
	lister := &fakeLister{calls: map[string][]provider.RawCall{
		"agent-1": {snapshot("c1", "ended", "hi")},
	}}
	p := NewPipeline(lister, repo, &fakeDirectory{}, nil)

	res, err := p.IngestForAgent(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("chunk failure must not abort the run: %v", err)
	}
	if res.Failed != 1 || res.Succeeded != 0 {
		t.Fatalf("expected 1 failed row, got %+v", res)
	}
}

func TestRun_IsolatesAgentFailures(t *testing.T) {
	repo := calls.NewMemoryRepo()
	lister := &fakeLister{err: errors.New("provider down")}
	dir := &fakeDirectory{agents: []string{"a1", "a2"}}
	p := NewPipeline(lister, repo, dir, nil)

	sum, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("per-agent failures must not fail the run: %v", err)
	}
	if len(sum.Agents) != 2 {
		t.Fatalf("expected results for both agents, got %d", len(sum.Agents))
	}
	for _, a := range sum.Agents {
		if a.Error == "" {
			t.Fatalf("expected error recorded for agent %s", a.AgentID)
		}
	}
}

func TestRun_DirectoryFailureIsFatal(t *testing.T) {
	p := NewPipeline(&fakeLister{}, calls.NewMemoryRepo(), &fakeDirectory{err: errors.New("no store")}, nil)
	if _, err := p.Run(context.Background()); err == nil {
		t.Fatalf("expected fatal error when agents cannot be enumerated")
	}
}
