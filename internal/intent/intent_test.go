package intent

import "testing"

func TestClassify(t *testing.T) {
	if got := Classify("this is URGENT, pipe burst"); got != IntentEmergency {
		t.Fatalf("expected Emergency, got %s", got)
	}
	// Emergency outranks service even when both match.
	if got := Classify("need an emergency repair"); got != IntentEmergency {
		t.Fatalf("expected Emergency, got %s", got)
	}
	if got := Classify("can you fix my furnace"); got != IntentService {
		t.Fatalf("expected Service, got %s", got)
	}
	if got := Classify("what is the price for a new unit"); got != IntentQuotation {
		t.Fatalf("expected Quotation, got %s", got)
	}
	if got := Classify("just wondering about your hours"); got != IntentInquiry {
		t.Fatalf("expected Inquiry, got %s", got)
	}
	if got := Classify(""); got != IntentInquiry {
		t.Fatalf("expected Inquiry for empty text, got %s", got)
	}
}

func TestLeadType(t *testing.T) {
	if got := LeadType("Service"); got == nil || *got != "Service" {
		t.Fatalf("expected Service lead type, got %v", got)
	}
	if got := LeadType("Inquiry"); got != nil {
		t.Fatalf("expected nil lead type for Inquiry, got %q", *got)
	}
	if got := LeadType(""); got != nil {
		t.Fatalf("expected nil lead type for empty, got %q", *got)
	}
}
