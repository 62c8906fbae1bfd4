// Package provider talks to the voice-agent platform's call-listing API.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// RawCall is one call snapshot as returned by the provider. Nested payloads
// are modeled explicitly; consumers use the accessor fallback order rather
// than probing untyped maps.
type RawCall struct {
	CallID         string  `json:"call_id"`
	AgentID        string  `json:"agent_id"`
	CallStatus     string  `json:"call_status"`
	StartTimestamp *int64  `json:"start_timestamp,omitempty"`
	EndTimestamp   *int64  `json:"end_timestamp,omitempty"`
	Transcript     *string `json:"transcript,omitempty"`
	RecordingURL   *string `json:"recording_url,omitempty"`
	CallType       *string `json:"call_type,omitempty"`
	FromNumber     *string `json:"from_number,omitempty"`

	Summary        *string `json:"summary,omitempty"`
	QuickSummary   *string `json:"quick_summary,omitempty"`
	JobDescription *string `json:"job_description,omitempty"`
	JobType        *string `json:"job_type,omitempty"`
	Notes          *string `json:"notes,omitempty"`
	ManualNotes    *string `json:"manual_notes,omitempty"`

	ClientName    *string `json:"client_name,omitempty"`
	ClientAddress *string `json:"client_address,omitempty"`
	ClientEmail   *string `json:"client_email,omitempty"`

	AppointmentDate   any     `json:"appointment_date,omitempty"`
	AppointmentTime   any     `json:"appointment_time,omitempty"`
	AppointmentStart  any     `json:"appointment_start,omitempty"`
	AppointmentEnd    any     `json:"appointment_end,omitempty"`
	AppointmentStatus *string `json:"appointment_status,omitempty"`

	UserSentiment  *string `json:"user_sentiment,omitempty"`
	CallSuccessful *bool   `json:"call_successful,omitempty"`
	InVoicemail    *bool   `json:"in_voicemail,omitempty"`
	Processed      *bool   `json:"processed,omitempty"`
	CreatedAt      *string `json:"created_at,omitempty"`

	CallAnalysis  *CallAnalysis  `json:"call_analysis,omitempty"`
	CollectedVars *CollectedVars `json:"collected_dynamic_variables,omitempty"`
}

// CallAnalysis is the provider's post-call analysis payload.
type CallAnalysis struct {
	CustomAnalysisData *CustomAnalysisData `json:"custom_analysis_data,omitempty"`
	UserSentiment      *string             `json:"user_sentiment,omitempty"`
	CallSuccessful     *bool               `json:"call_successful,omitempty"`
	InVoicemail        *bool               `json:"in_voicemail,omitempty"`
	CallSummary        *string             `json:"call_summary,omitempty"`
}

type CustomAnalysisData struct {
	JobType *string `json:"job_type,omitempty"`
}

// CollectedVars are the variables the agent collected during the call.
type CollectedVars struct {
	UserName         *string `json:"user_name,omitempty"`
	ValidatedAddress *string `json:"validated_address,omitempty"`
	RawInput         *string `json:"raw_input,omitempty"`
	UserEmail        *string `json:"user_email,omitempty"`
}

// ResolvedJobType returns the nested analysis job type, falling back to the
// top-level field.
func (c RawCall) ResolvedJobType() *string {
	if c.CallAnalysis != nil && c.CallAnalysis.CustomAnalysisData != nil && c.CallAnalysis.CustomAnalysisData.JobType != nil {
		return c.CallAnalysis.CustomAnalysisData.JobType
	}
	return c.JobType
}

// ResolvedClientName prefers the collected variable over the top-level field.
func (c RawCall) ResolvedClientName() *string {
	if c.CollectedVars != nil && notBlank(c.CollectedVars.UserName) {
		return c.CollectedVars.UserName
	}
	return c.ClientName
}

// ResolvedClientAddress prefers validated over raw collected input, then the
// top-level field.
func (c RawCall) ResolvedClientAddress() *string {
	if c.CollectedVars != nil {
		if notBlank(c.CollectedVars.ValidatedAddress) {
			return c.CollectedVars.ValidatedAddress
		}
		if notBlank(c.CollectedVars.RawInput) {
			return c.CollectedVars.RawInput
		}
	}
	return c.ClientAddress
}

func (c RawCall) ResolvedClientEmail() *string {
	if c.CollectedVars != nil && notBlank(c.CollectedVars.UserEmail) {
		return c.CollectedVars.UserEmail
	}
	return c.ClientEmail
}

// RawAnalysisJSON renders the call_analysis payload for verbatim storage.
func (c RawCall) RawAnalysisJSON() *string {
	if c.CallAnalysis == nil {
		return nil
	}
	b, err := json.Marshal(c.CallAnalysis)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

func notBlank(s *string) bool { return s != nil && *s != "" }

// ListParams bound a call-listing request.
type ListParams struct {
	AgentID        string
	StartAfter     time.Time
	Limit          int
	SortDescending bool
}

// Lister is the call-listing contract consumed by ingestion.
type Lister interface {
	ListCalls(ctx context.Context, p ListParams) ([]RawCall, error)
}

// Config for the HTTP client. BaseURL and APIKey come from process config;
// no module-level globals.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is the resty-backed Lister.
type Client struct {
	http *resty.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetTimeout(timeout)
	return &Client{http: c}
}

type listCallsRequest struct {
	AgentID        string `json:"agent_id"`
	StartTimestamp int64  `json:"start_timestamp_after"`
	Limit          int    `json:"limit"`
	SortOrder      string `json:"sort_order"`
}

func (c *Client) ListCalls(ctx context.Context, p ListParams) ([]RawCall, error) {
	order := "ascending"
	if p.SortDescending {
		order = "descending"
	}
	body := listCallsRequest{
		AgentID:        p.AgentID,
		StartTimestamp: p.StartAfter.UnixMilli(),
		Limit:          p.Limit,
		SortOrder:      order,
	}

	var out []RawCall
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/v2/list-calls")
	if err != nil {
		return nil, fmt.Errorf("provider: list calls: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("provider: list calls: status %d: %s", resp.StatusCode(), resp.String())
	}
	return out, nil
}
