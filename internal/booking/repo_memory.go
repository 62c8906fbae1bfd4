package booking

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// MemoryQueueRepo is an in-memory QueueRepository for tests.
type MemoryQueueRepo struct {
	mu       sync.Mutex
	Requests map[string]ManualSyncRequest

	FailSetStatus bool
}

func NewMemoryQueueRepo() *MemoryQueueRepo {
	return &MemoryQueueRepo{Requests: make(map[string]ManualSyncRequest)}
}

// Add seeds a request directly, defaulting to pending.
func (m *MemoryQueueRepo) Add(r ManualSyncRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.Status == "" {
		r.Status = SyncPending
	}
	m.Requests[r.CallID] = r
}

// Enqueue creates or re-arms a request as pending.
func (m *MemoryQueueRepo) Enqueue(ctx context.Context, callID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	r, ok := m.Requests[callID]
	if !ok {
		r = ManualSyncRequest{CallID: callID, CreatedAt: now}
	}
	r.Status = SyncPending
	r.BookingID = nil
	r.ErrorMessage = nil
	r.UpdatedAt = now
	m.Requests[callID] = r
	return nil
}

func (m *MemoryQueueRepo) ListPending(ctx context.Context, limit int) ([]ManualSyncRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ManualSyncRequest
	for _, r := range m.Requests {
		if r.Status == SyncPending {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryQueueRepo) SetStatus(ctx context.Context, callID, status string, bookingID, errorMessage *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSetStatus {
		return errors.New("booking: injected queue failure")
	}
	r, ok := m.Requests[callID]
	if !ok {
		return errors.New("booking: request not found")
	}
	r.Status = status
	r.BookingID = bookingID
	r.ErrorMessage = errorMessage
	r.UpdatedAt = time.Now().UTC()
	m.Requests[callID] = r
	return nil
}

// MemoryLogRepo is an in-memory LogRepository for tests. It keeps the full
// write history so ordering against queue transitions can be asserted.
type MemoryLogRepo struct {
	mu      sync.Mutex
	Entries map[string]SyncLogEntry
	History []SyncLogEntry
}

func NewMemoryLogRepo() *MemoryLogRepo {
	return &MemoryLogRepo{Entries: make(map[string]SyncLogEntry)}
}

func (m *MemoryLogRepo) Upsert(ctx context.Context, e SyncLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries[e.CallLogID] = e
	m.History = append(m.History, e)
	return nil
}

func (m *MemoryLogRepo) Get(callLogID string) (SyncLogEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Entries[callLogID]
	return e, ok
}
