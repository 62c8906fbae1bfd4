package enrichment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"leadsync/internal/calls"
)

type fakeExtractor struct {
	result Result
	err    error
	calls  int
}

func (f *fakeExtractor) Extract(ctx context.Context, transcript string) (Result, error) {
	f.calls++
	if f.err != nil {
		return Result{}, f.err
	}
	return f.result, nil
}

func str(s string) *string { return &s }

func pendingRecord(id string) calls.CallRecord {
	long := strings.Repeat("caller says things ", 10)
	return calls.CallRecord{
		CallID:     id,
		AgentID:    "agent-1",
		CallStatus: calls.CallStatusEnded,
		GPTStatus:  calls.EnrichmentPending,
		Transcript: str(long),
		CreatedAt:  time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRun_FillsNullFieldsOnly(t *testing.T) {
	repo := calls.NewMemoryRepo()
	rec := pendingRecord("c1")
	rec.ClientName = str("Already Set")
	repo.Records["c1"] = rec

	ext := &fakeExtractor{result: Result{
		ClientName:     str("New Name"),
		ClientEmail:    str("lead@example.com"),
		IntentCategory: str("Service"),
	}}
	p := NewPipeline(repo, ext, nil)

	sum, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if sum.Selected != 1 || sum.Completed != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	got, _ := repo.Get(context.Background(), "c1")
	if *got.ClientName != "Already Set" {
		t.Fatalf("non-null field overwritten: %q", *got.ClientName)
	}
	if got.ClientEmail == nil || *got.ClientEmail != "lead@example.com" {
		t.Fatalf("null field not filled: %v", got.ClientEmail)
	}
	if got.LeadType == nil || *got.LeadType != "Service" {
		t.Fatalf("lead type not derived: %v", got.LeadType)
	}
	if got.GPTStatus != calls.EnrichmentCompleted {
		t.Fatalf("expected completed status, got %d", got.GPTStatus)
	}
}

func TestRun_VagueExtractionValuesLandAsNull(t *testing.T) {
	repo := calls.NewMemoryRepo()
	repo.Records["c1"] = pendingRecord("c1")

	ext := &fakeExtractor{result: Result{
		AppointmentDate:  str("next week"),
		AppointmentTime:  str("around 3pm"),
		AppointmentStart: str("14:00"),
		ClientEmail:      str("not-an-email"),
		ClientName:       str("Ann Lee"),
	}}
	p := NewPipeline(repo, ext, nil)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	got, _ := repo.Get(context.Background(), "c1")
	if got.AppointmentDate != nil {
		t.Fatalf("vague date must land as null, got %q", *got.AppointmentDate)
	}
	if got.AppointmentTime != nil {
		t.Fatalf("vague time must land as null, got %q", *got.AppointmentTime)
	}
	if got.ClientEmail != nil {
		t.Fatalf("invalid email must land as null, got %q", *got.ClientEmail)
	}
	if got.AppointmentStart == nil || *got.AppointmentStart != "14:00" {
		t.Fatalf("well-formed time must survive normalization: %v", got.AppointmentStart)
	}
	if got.ClientName == nil || *got.ClientName != "Ann Lee" {
		t.Fatalf("name must pass through untouched: %v", got.ClientName)
	}
	if got.GPTStatus != calls.EnrichmentCompleted {
		t.Fatalf("expected completed status, got %d", got.GPTStatus)
	}
}

func TestRun_FirstWriterWinsAcrossRuns(t *testing.T) {
	repo := calls.NewMemoryRepo()
	repo.Records["c1"] = pendingRecord("c1")

	ext := &fakeExtractor{result: Result{ClientEmail: str("first@example.com")}}
	p := NewPipeline(repo, ext, nil)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Re-arm the record and run again with a different extraction.
	rec, _ := repo.Get(context.Background(), "c1")
	rec.GPTStatus = calls.EnrichmentPending
	repo.Records["c1"] = rec

	ext.result = Result{ClientEmail: str("second@example.com")}
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}

	got, _ := repo.Get(context.Background(), "c1")
	if *got.ClientEmail != "first@example.com" {
		t.Fatalf("first writer must win, got %q", *got.ClientEmail)
	}
}

func TestRun_ReservationFailureAbortsCycle(t *testing.T) {
	repo := calls.NewMemoryRepo()
	repo.Records["c1"] = pendingRecord("c1")
	repo.FailBatchStatus = true

	ext := &fakeExtractor{}
	p := NewPipeline(repo, ext, nil)

	if _, err := p.Run(context.Background()); err == nil {
		t.Fatalf("expected cycle abort when reservation write fails")
	}
	if ext.calls != 0 {
		t.Fatalf("no extraction may run after a failed reservation, got %d calls", ext.calls)
	}
}

func TestRun_ExtractionErrorMarksFailed(t *testing.T) {
	repo := calls.NewMemoryRepo()
	repo.Records["c1"] = pendingRecord("c1")

	p := NewPipeline(repo, &fakeExtractor{err: errors.New("llm down")}, nil)
	sum, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("record failure must not fail the cycle: %v", err)
	}
	if sum.Failed != 1 {
		t.Fatalf("expected 1 failed, got %+v", sum)
	}
	got, _ := repo.Get(context.Background(), "c1")
	if got.GPTStatus != calls.EnrichmentFailed {
		t.Fatalf("expected failed status, got %d", got.GPTStatus)
	}
}

func TestRun_ShortTranscriptSkipsExtraction(t *testing.T) {
	repo := calls.NewMemoryRepo()
	rec := pendingRecord("c1")
	rec.Transcript = str("hi")
	repo.Records["c1"] = rec

	ext := &fakeExtractor{}
	p := NewPipeline(repo, ext, nil)

	sum, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ext.calls != 0 {
		t.Fatalf("short transcript must skip extraction")
	}
	if sum.Skipped != 1 || sum.Completed != 1 {
		t.Fatalf("skip counts as trivially successful, got %+v", sum)
	}
	got, _ := repo.Get(context.Background(), "c1")
	if got.GPTStatus != calls.EnrichmentCompleted {
		t.Fatalf("expected completed status, got %d", got.GPTStatus)
	}
}

func TestRun_StatusAdvancesEvenIfFieldWriteFails(t *testing.T) {
	repo := calls.NewMemoryRepo()
	repo.Records["c1"] = pendingRecord("c1")
	repo.FailApplyEnrichment = true

	p := NewPipeline(repo, &fakeExtractor{result: Result{ClientEmail: str("x@y.com")}}, nil)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	got, _ := repo.Get(context.Background(), "c1")
	if got.GPTStatus != calls.EnrichmentCompleted {
		t.Fatalf("status must reflect extraction outcome, got %d", got.GPTStatus)
	}
}

func TestParseResult(t *testing.T) {
	res, ok := ParseResult(`{"client_name":"Ann","client_email":null}`)
	if !ok {
		t.Fatalf("expected valid parse")
	}
	if res.ClientName == nil || *res.ClientName != "Ann" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.ClientEmail != nil {
		t.Fatalf("expected nil email")
	}

	res, ok = ParseResult("```json\n{\"job_type\":\"HVAC\"}\n```")
	if !ok || res.JobType == nil || *res.JobType != "HVAC" {
		t.Fatalf("expected fenced JSON to parse, got ok=%v %+v", ok, res)
	}

	res, ok = ParseResult("sorry, I cannot help with that")
	if ok {
		t.Fatalf("malformed body must parse to empty result with ok=false")
	}
	if res != (Result{}) {
		t.Fatalf("expected empty result, got %+v", res)
	}
}
