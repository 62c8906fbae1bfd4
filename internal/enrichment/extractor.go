// Package enrichment fills structured fields on stored calls from their
// transcripts.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Result is the structured output of transcript extraction. All fields are
// nullable; absent fields never overwrite stored data.
type Result struct {
	ClientName       *string `json:"client_name"`
	ClientEmail      *string `json:"client_email"`
	ClientAddress    *string `json:"client_address"`
	AppointmentDate  *string `json:"appointment_date"`
	AppointmentTime  *string `json:"appointment_time"`
	AppointmentStart *string `json:"appointment_start"`
	AppointmentEnd   *string `json:"appointment_end"`
	Summary          *string `json:"summary"`
	QuickSummary     *string `json:"quick_summary"`
	IntentCategory   *string `json:"intent_category"`
	JobDescription   *string `json:"job_description"`
	JobType          *string `json:"job_type"`
}

// ParseResult decodes a completion body into a Result. A malformed body is a
// recoverable condition: it parses to the empty result with ok=false, never
// an error.
func ParseResult(raw string) (Result, bool) {
	s := strings.TrimSpace(raw)
	// Models occasionally wrap JSON in markdown fences despite instructions.
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var out Result
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return Result{}, false
	}
	return out, true
}

// Extractor is the extraction collaborator contract. A transport failure is
// an error; a parse failure is the empty Result with a nil error.
type Extractor interface {
	Extract(ctx context.Context, transcript string) (Result, error)
}

// Config for the OpenAI-backed extractor.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIExtractor runs a chat completion asking for a strict JSON object.
type OpenAIExtractor struct {
	client *openai.Client
	model  string
}

const extractionPrompt = `You extract structured lead data from a phone call transcript.
Respond with a single JSON object with exactly these keys, using null for anything not stated in the call:
client_name, client_email, client_address, appointment_date, appointment_time, appointment_start, appointment_end, summary, quick_summary, intent_category, job_description, job_type.
intent_category must be one of: Emergency, Service, Quotation, Inquiry.
appointment_date must be YYYY-MM-DD; times must be HH:MM. Do not guess vague values.`

func NewOpenAIExtractor(cfg Config) *OpenAIExtractor {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIExtractor{client: openai.NewClientWithConfig(oc), model: model}
}

func (e *OpenAIExtractor) Extract(ctx context.Context, transcript string) (Result, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionPrompt},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("enrichment: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, nil
	}
	out, _ := ParseResult(resp.Choices[0].Message.Content)
	return out, nil
}
