package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"leadsync/internal/calls"
	"leadsync/internal/intent"
	"leadsync/internal/normalize"
	"leadsync/pkg/utils"
)

const (
	// scanLimit caps one enrichment cycle.
	scanLimit = 50
	// extractBatchSize is the bounded fan-out width for extraction calls.
	extractBatchSize = 5
	// minTranscriptChars below which extraction is skipped as trivially
	// successful; such transcripts carry nothing worth extracting.
	minTranscriptChars = 50
)

// Summary is the outcome of one enrichment cycle.
type Summary struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Selected   int       `json:"selected"`
	Completed  int       `json:"completed"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
}

// Pipeline scans stored records awaiting extraction and fills still-null
// fields from transcript extraction.
type Pipeline struct {
	repo      calls.Repository
	extractor Extractor
	log       *slog.Logger
	now       func() time.Time
}

func NewPipeline(repo calls.Repository, extractor Extractor, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{repo: repo, extractor: extractor, log: log, now: time.Now}
}

// Run executes one enrichment cycle.
//
// The selected records are reserved (gpt_status -> processing) in a single
// batch write before any extraction starts; if that reservation fails the
// whole cycle aborts with no extraction attempted. Per-record outcomes are
// then terminal: completed on extraction success, failed otherwise, written
// even when the field-update write itself failed.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	sum := Summary{StartedAt: p.now().UTC()}

	pending, err := p.repo.ListPendingEnrichment(ctx, scanLimit)
	if err != nil {
		return sum, fmt.Errorf("enrichment: scan pending: %w", err)
	}
	sum.Selected = len(pending)
	if len(pending) == 0 {
		sum.FinishedAt = p.now().UTC()
		return sum, nil
	}

	ids := make([]string, 0, len(pending))
	for _, r := range pending {
		ids = append(ids, r.CallID)
	}
	if err := p.repo.SetEnrichmentStatusBatch(ctx, ids, calls.EnrichmentProcessing); err != nil {
		return sum, fmt.Errorf("enrichment: reserve records: %w", err)
	}

	var mu sync.Mutex
	utils.ForEachBatch(ctx, pending, extractBatchSize, func(ctx context.Context, rec calls.CallRecord) {
		completed, skipped := p.enrichOne(ctx, rec)
		mu.Lock()
		if skipped {
			sum.Skipped++
		}
		if completed {
			sum.Completed++
		} else {
			sum.Failed++
		}
		mu.Unlock()
	})

	sum.FinishedAt = p.now().UTC()
	p.log.Info("enrichment cycle complete",
		"selected", sum.Selected,
		"completed", sum.Completed,
		"failed", sum.Failed,
		"skipped", sum.Skipped,
	)
	return sum, nil
}

func (p *Pipeline) enrichOne(ctx context.Context, rec calls.CallRecord) (completed, skipped bool) {
	var res Result
	if rec.Transcript != nil && len(*rec.Transcript) >= minTranscriptChars {
		var err error
		res, err = p.extractor.Extract(ctx, *rec.Transcript)
		if err != nil {
			p.log.Error("extraction failed", "call_id", rec.CallID, "err", err)
			if serr := p.repo.SetEnrichmentStatus(ctx, rec.CallID, calls.EnrichmentFailed); serr != nil {
				p.log.Error("status update failed", "call_id", rec.CallID, "err", serr)
			}
			return false, false
		}
	} else {
		skipped = true
	}

	update := buildUpdate(rec, res)
	if !update.IsEmpty() {
		if err := p.repo.ApplyEnrichment(ctx, rec.CallID, update); err != nil {
			// The extraction itself succeeded; status still advances below.
			p.log.Error("field update failed", "call_id", rec.CallID, "err", err)
		}
	}

	if err := p.repo.SetEnrichmentStatus(ctx, rec.CallID, calls.EnrichmentCompleted); err != nil {
		p.log.Error("status update failed", "call_id", rec.CallID, "err", err)
	}
	return true, skipped
}

// buildUpdate keeps only extraction values for columns still null on the
// stored record (first-writer-wins). Date, time and email values pass
// through the normalizer first, so a vague or malformed model reply lands
// as null instead of being stored verbatim.
func buildUpdate(rec calls.CallRecord, res Result) calls.FieldUpdate {
	var u calls.FieldUpdate

	keep := func(current *string, extracted *string) *string {
		if current != nil || extracted == nil || *extracted == "" {
			return nil
		}
		return extracted
	}
	keepDate := func(current *string, extracted *string, role normalize.DateRole) *string {
		if extracted == nil {
			return nil
		}
		return keep(current, normalize.NormalizeDate(*extracted, role))
	}
	keepEmail := func(current *string, extracted *string) *string {
		if extracted == nil {
			return nil
		}
		return keep(current, normalize.CleanEmail(*extracted))
	}

	u.ClientName = keep(rec.ClientName, res.ClientName)
	u.ClientEmail = keepEmail(rec.ClientEmail, res.ClientEmail)
	u.ClientAddress = keep(rec.ClientAddress, res.ClientAddress)
	u.AppointmentDate = keepDate(rec.AppointmentDate, res.AppointmentDate, normalize.RoleDate)
	u.AppointmentTime = keepDate(rec.AppointmentTime, res.AppointmentTime, normalize.RoleTime)
	u.AppointmentStart = keepDate(rec.AppointmentStart, res.AppointmentStart, normalize.RoleTime)
	u.AppointmentEnd = keepDate(rec.AppointmentEnd, res.AppointmentEnd, normalize.RoleTime)
	u.Summary = keep(rec.Summary, res.Summary)
	u.QuickSummary = keep(rec.QuickSummary, res.QuickSummary)
	u.JobDescription = keep(rec.JobDescription, res.JobDescription)
	u.JobType = keep(rec.JobType, res.JobType)

	u.Intent = keep(rec.Intent, res.IntentCategory)
	if rec.LeadType == nil && res.IntentCategory != nil {
		u.LeadType = intent.LeadType(*res.IntentCategory)
	}
	return u
}
