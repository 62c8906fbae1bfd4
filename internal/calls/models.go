package calls

import "time"

// CallRecord is the canonical stored form of a voice-agent call.
//
// Invariants:
// - CallID is externally assigned and unique; upserts conflict on it.
// - Once CallStatus is terminal (ended/failed) the row is immutable to
//   re-ingestion. Enrichment may still fill null fields at any status.
// - Every nullable contact/schedule field is written at most once:
//   first-writer-wins across ingestion mapping and enrichment.

type CallRecord struct {
	CallID  string `json:"call_id" db:"call_id"`
	AgentID string `json:"agent_id" db:"agent_id"`

	CallStatus string           `json:"call_status" db:"call_status"`
	Processed  bool             `json:"processed" db:"processed"`
	GPTStatus  EnrichmentStatus `json:"gpt_status" db:"gpt_status"`

	Transcript     *string `json:"transcript,omitempty" db:"transcript"`
	RecordingURL   *string `json:"recording_url,omitempty" db:"recording_url"`
	Summary        *string `json:"summary,omitempty" db:"summary"`
	QuickSummary   *string `json:"quick_summary,omitempty" db:"quick_summary"`
	Intent         *string `json:"intent,omitempty" db:"intent"`
	LeadType       *string `json:"lead_type,omitempty" db:"lead_type"`
	JobDescription *string `json:"job_description,omitempty" db:"job_description"`
	JobType        *string `json:"job_type,omitempty" db:"job_type"`
	Notes          *string `json:"notes,omitempty" db:"notes"`
	ManualNotes    *string `json:"manual_notes,omitempty" db:"manual_notes"`

	// CallAnalysis is the provider's nested analysis payload, stored verbatim
	// as JSON.
	CallAnalysis *string `json:"call_analysis,omitempty" db:"call_analysis"`

	EmailSent int `json:"email_sent" db:"email_sent"`

	ClientName    *string `json:"client_name,omitempty" db:"client_name"`
	ClientAddress *string `json:"client_address,omitempty" db:"client_address"`
	ClientEmail   *string `json:"client_email,omitempty" db:"client_email"`
	FromNumber    *string `json:"from_number,omitempty" db:"from_number"`

	AppointmentDate   *string `json:"appointment_date,omitempty" db:"appointment_date"`
	AppointmentTime   *string `json:"appointment_time,omitempty" db:"appointment_time"`
	AppointmentStart  *string `json:"appointment_start,omitempty" db:"appointment_start"`
	AppointmentEnd    *string `json:"appointment_end,omitempty" db:"appointment_end"`
	AppointmentStatus *string `json:"appointment_status,omitempty" db:"appointment_status"`

	StartTimestamp *int64 `json:"start_timestamp,omitempty" db:"start_timestamp"`
	EndTimestamp   *int64 `json:"end_timestamp,omitempty" db:"end_timestamp"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Provider call statuses. Providers may emit values outside this set; only
// the terminal ones matter to the pipeline.
const (
	CallStatusEnded   = "ended"
	CallStatusFailed  = "failed"
	CallStatusOngoing = "ongoing"
)

// IsTerminalStatus reports whether a call status is final. Terminal records
// are never re-written by ingestion.
func IsTerminalStatus(s string) bool {
	return s == CallStatusEnded || s == CallStatusFailed
}

// EnrichmentStatus tracks text-extraction progress per record, distinct from
// the provider call status.
type EnrichmentStatus int

const (
	EnrichmentFailed     EnrichmentStatus = -1
	EnrichmentPending    EnrichmentStatus = 0
	EnrichmentProcessing EnrichmentStatus = 1
	EnrichmentCompleted  EnrichmentStatus = 2
)

// FieldUpdate carries the nullable columns enrichment may fill in. Only
// non-nil pointers are applied, and only onto columns that are still null.
type FieldUpdate struct {
	ClientName       *string
	ClientEmail      *string
	ClientAddress    *string
	AppointmentDate  *string
	AppointmentTime  *string
	AppointmentStart *string
	AppointmentEnd   *string
	Summary          *string
	QuickSummary     *string
	Intent           *string
	LeadType         *string
	JobDescription   *string
	JobType          *string
}

// IsEmpty reports whether the update carries no values at all.
func (u FieldUpdate) IsEmpty() bool {
	return u.ClientName == nil && u.ClientEmail == nil && u.ClientAddress == nil &&
		u.AppointmentDate == nil && u.AppointmentTime == nil &&
		u.AppointmentStart == nil && u.AppointmentEnd == nil &&
		u.Summary == nil && u.QuickSummary == nil &&
		u.Intent == nil && u.LeadType == nil &&
		u.JobDescription == nil && u.JobType == nil
}
