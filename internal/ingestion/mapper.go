package ingestion

import (
	"time"

	"leadsync/internal/calls"
	"leadsync/internal/intent"
	"leadsync/internal/normalize"
	"leadsync/internal/provider"
)

// mapRecord converts one provider snapshot into the canonical stored shape.
// The typed CallRecord is the strict column filter: anything the provider
// sends outside it is dropped here.
func mapRecord(raw provider.RawCall, agentID string, now time.Time) calls.CallRecord {
	// Intent from transcript, falling back to the summary.
	classifyInput := ""
	if raw.Transcript != nil {
		classifyInput = *raw.Transcript
	} else if raw.Summary != nil {
		classifyInput = *raw.Summary
	}
	label := string(intent.Classify(classifyInput))

	createdAt := now
	if raw.StartTimestamp != nil {
		createdAt = time.UnixMilli(*raw.StartTimestamp).UTC()
	}

	processed := false
	if raw.Processed != nil {
		processed = *raw.Processed
	}

	summary := raw.Summary
	if summary == nil && raw.CallAnalysis != nil {
		summary = raw.CallAnalysis.CallSummary
	}

	return calls.CallRecord{
		CallID:     raw.CallID,
		AgentID:    agentID,
		CallStatus: raw.CallStatus,
		Processed:  processed,
		GPTStatus:  calls.EnrichmentPending,

		Transcript:     raw.Transcript,
		RecordingURL:   raw.RecordingURL,
		Summary:        summary,
		QuickSummary:   raw.QuickSummary,
		Intent:         &label,
		LeadType:       intent.LeadType(label),
		JobDescription: raw.JobDescription,
		JobType:        raw.ResolvedJobType(),
		Notes:          raw.Notes,
		ManualNotes:    raw.ManualNotes,
		CallAnalysis:   raw.RawAnalysisJSON(),

		ClientName:    raw.ResolvedClientName(),
		ClientAddress: raw.ResolvedClientAddress(),
		ClientEmail:   raw.ResolvedClientEmail(),
		FromNumber:    raw.FromNumber,

		AppointmentDate:   normalize.NormalizeDate(raw.AppointmentDate, normalize.RoleDate),
		AppointmentTime:   normalize.NormalizeDate(raw.AppointmentTime, normalize.RoleTime),
		AppointmentStart:  normalize.NormalizeDate(raw.AppointmentStart, normalize.RoleTime),
		AppointmentEnd:    normalize.NormalizeDate(raw.AppointmentEnd, normalize.RoleTime),
		AppointmentStatus: raw.AppointmentStatus,

		StartTimestamp: raw.StartTimestamp,
		EndTimestamp:   raw.EndTimestamp,

		CreatedAt: createdAt,
		UpdatedAt: now,
	}
}
