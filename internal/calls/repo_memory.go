package calls

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var errFailInjected = errors.New("calls: injected failure")

// MemoryRepo is an in-memory Repository for tests. Not for production use.
type MemoryRepo struct {
	mu      sync.Mutex
	Records map[string]CallRecord

	// Optional failure injection.
	FailUpsert          bool
	FailBatchStatus     bool
	FailApplyEnrichment bool
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{Records: make(map[string]CallRecord)}
}

func (m *MemoryRepo) Get(ctx context.Context, callID string) (CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Records[callID]
	if !ok {
		return CallRecord{}, ErrNotFound
	}
	return r, nil
}

func (m *MemoryRepo) StatusByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if r, ok := m.Records[id]; ok {
			out[id] = r.CallStatus
		}
	}
	return out, nil
}

func (m *MemoryRepo) UpsertBatch(ctx context.Context, recs []CallRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpsert {
		return errFailInjected
	}
	for _, r := range recs {
		m.Records[r.CallID] = r
	}
	return nil
}

func (m *MemoryRepo) ListPendingEnrichment(ctx context.Context, limit int) ([]CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []CallRecord
	for _, r := range m.Records {
		if r.GPTStatus == EnrichmentPending && r.CallStatus == CallStatusEnded && r.Transcript != nil {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepo) SetEnrichmentStatusBatch(ctx context.Context, ids []string, st EnrichmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailBatchStatus {
		return errFailInjected
	}
	for _, id := range ids {
		if r, ok := m.Records[id]; ok {
			r.GPTStatus = st
			r.UpdatedAt = time.Now().UTC()
			m.Records[id] = r
		}
	}
	return nil
}

func (m *MemoryRepo) SetEnrichmentStatus(ctx context.Context, callID string, st EnrichmentStatus) error {
	return m.SetEnrichmentStatusBatch(ctx, []string{callID}, st)
}

func (m *MemoryRepo) ApplyEnrichment(ctx context.Context, callID string, u FieldUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailApplyEnrichment {
		return errFailInjected
	}
	r, ok := m.Records[callID]
	if !ok {
		return ErrNotFound
	}
	merge := func(dst **string, v *string) {
		if *dst == nil && v != nil {
			*dst = v
		}
	}
	merge(&r.ClientName, u.ClientName)
	merge(&r.ClientEmail, u.ClientEmail)
	merge(&r.ClientAddress, u.ClientAddress)
	merge(&r.AppointmentDate, u.AppointmentDate)
	merge(&r.AppointmentTime, u.AppointmentTime)
	merge(&r.AppointmentStart, u.AppointmentStart)
	merge(&r.AppointmentEnd, u.AppointmentEnd)
	merge(&r.Summary, u.Summary)
	merge(&r.QuickSummary, u.QuickSummary)
	merge(&r.Intent, u.Intent)
	merge(&r.LeadType, u.LeadType)
	merge(&r.JobDescription, u.JobDescription)
	merge(&r.JobType, u.JobType)
	r.UpdatedAt = time.Now().UTC()
	m.Records[callID] = r
	return nil
}
