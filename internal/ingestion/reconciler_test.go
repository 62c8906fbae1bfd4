package ingestion

import (
	"testing"

	"leadsync/internal/provider"
)

func TestReconcile_TerminalSkip(t *testing.T) {
	fetched := []provider.RawCall{
		{CallID: "c1", CallStatus: "ended"},
		{CallID: "c2", CallStatus: "ended"},
		{CallID: "c3", CallStatus: "ongoing"},
		{CallID: "c4", CallStatus: "ended"},
	}
	stored := map[string]string{
		"c2": "ended",   // terminal: skipped regardless of snapshot content
		"c3": "ongoing", // non-terminal: re-processed
		"c4": "failed",  // terminal
	}

	got := Reconcile(fetched, stored)
	if len(got) != 2 {
		t.Fatalf("expected 2 records to process, got %d", len(got))
	}
	if got[0].CallID != "c1" || got[1].CallID != "c3" {
		t.Fatalf("expected [c1 c3] in input order, got [%s %s]", got[0].CallID, got[1].CallID)
	}
}

func TestReconcile_EmptyStored(t *testing.T) {
	fetched := []provider.RawCall{{CallID: "a"}, {CallID: "b"}}
	got := Reconcile(fetched, map[string]string{})
	if len(got) != 2 {
		t.Fatalf("expected all records, got %d", len(got))
	}
}
