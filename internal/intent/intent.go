// Package intent categorizes call transcripts into fixed lead intents.
package intent

import "strings"

type Intent string

const (
	IntentEmergency Intent = "Emergency"
	IntentService   Intent = "Service"
	IntentQuotation Intent = "Quotation"
	IntentInquiry   Intent = "Inquiry"
)

// Keyword groups checked in priority order. First match wins.
var (
	emergencyWords = []string{"emergency", "urgent", "asap"}
	serviceWords   = []string{"service", "repair", "fix"}
	quotationWords = []string{"quote", "estimate", "price"}
)

// Classify maps free text to an Intent. Deterministic and total; empty or
// unmatched text is an Inquiry.
func Classify(text string) Intent {
	s := strings.ToLower(text)
	if containsAny(s, emergencyWords) {
		return IntentEmergency
	}
	if containsAny(s, serviceWords) {
		return IntentService
	}
	if containsAny(s, quotationWords) {
		return IntentQuotation
	}
	return IntentInquiry
}

// LeadType derives the lead type from an intent label. Only Service,
// Emergency and Quotation qualify; anything else yields nil.
func LeadType(v string) *string {
	switch Intent(v) {
	case IntentService, IntentEmergency, IntentQuotation:
		s := v
		return &s
	default:
		return nil
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
