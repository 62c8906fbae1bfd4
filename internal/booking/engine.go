package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"leadsync/internal/calls"
	"leadsync/internal/directory"
)

// pollLimit caps how many pending requests one run drains.
const pollLimit = 10

// Summary is the outcome of one sync run.
type Summary struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Processed  int       `json:"processed"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
}

// Engine drains the manual sync queue into the scheduling platform.
//
// Items run strictly sequentially: each performs an authenticated session
// and an ordered audit-then-status write pair that must not interleave with
// another item's writes.
type Engine struct {
	queue   QueueRepository
	logs    LogRepository
	records calls.Repository
	dir     directory.Directory
	creds   directory.CredentialStore
	auth    AuthClient
	creator Creator
	log     *slog.Logger
	now     func() time.Time
}

func NewEngine(
	queue QueueRepository,
	logs LogRepository,
	records calls.Repository,
	dir directory.Directory,
	creds directory.CredentialStore,
	auth AuthClient,
	creator Creator,
	log *slog.Logger,
) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		queue:   queue,
		logs:    logs,
		records: records,
		dir:     dir,
		creds:   creds,
		auth:    auth,
		creator: creator,
		log:     log,
		now:     time.Now,
	}
}

// Run drains up to pollLimit pending requests. One item's failure never
// aborts the batch; only the inability to read the queue is fatal.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	sum := Summary{StartedAt: e.now().UTC()}

	pending, err := e.queue.ListPending(ctx, pollLimit)
	if err != nil {
		return sum, fmt.Errorf("booking: poll queue: %w", err)
	}

	for _, req := range pending {
		sum.Processed++
		if e.processItem(ctx, req) {
			sum.Succeeded++
		} else {
			sum.Failed++
		}
	}

	sum.FinishedAt = e.now().UTC()
	e.log.Info("booking sync run complete",
		"processed", sum.Processed,
		"succeeded", sum.Succeeded,
		"failed", sum.Failed,
	)
	return sum, nil
}

func (e *Engine) processItem(ctx context.Context, req ManualSyncRequest) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("sync item panicked", "call_id", req.CallID, "panic", r)
			e.failItem(ctx, req.CallID, fmt.Sprintf("unexpected failure: %v", r))
			ok = false
		}
	}()

	rec, err := e.records.Get(ctx, req.CallID)
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			e.failItem(ctx, req.CallID, "call record not found")
		} else {
			e.failItem(ctx, req.CallID, "call record lookup failed: "+err.Error())
		}
		return false
	}
	if rec.CallStatus != calls.CallStatusEnded {
		e.failItem(ctx, req.CallID, fmt.Sprintf("call is not ended (status %q)", rec.CallStatus))
		return false
	}

	token, loc, err := e.authenticate(ctx, rec.AgentID)
	if err != nil {
		e.failItem(ctx, req.CallID, err.Error())
		return false
	}

	now := e.now().UTC()
	if verrs := ValidateLead(rec, loc, now); len(verrs) > 0 {
		e.failItem(ctx, req.CallID, strings.Join(verrs, "; "))
		return false
	}

	// Audit the attempt before anything irreversible happens.
	e.writeLog(ctx, req.CallID, SyncPending, nil, nil)

	payload, err := BuildPayload(rec, loc, token.CompanyID, now)
	if err != nil {
		e.failItem(ctx, req.CallID, err.Error())
		return false
	}

	bookingID, err := e.creator.CreateBooking(ctx, token, payload)
	if err != nil {
		msg := err.Error()
		var perr *ProviderError
		if errors.As(err, &perr) {
			msg = perr.Message
		}
		e.failItem(ctx, req.CallID, msg)
		return false
	}

	// Audit first, then the queue transition.
	e.writeLog(ctx, req.CallID, SyncSuccess, &bookingID, nil)
	if err := e.queue.SetStatus(ctx, req.CallID, SyncSuccess, &bookingID, nil); err != nil {
		e.log.Error("queue transition failed", "call_id", req.CallID, "err", err)
	}
	e.log.Info("booking created", "call_id", req.CallID, "booking_id", bookingID)
	return true
}

// authenticate resolves credentials for the owning agent and opens a fresh
// platform session. The timezone lookup degrades to UTC instead of aborting.
func (e *Engine) authenticate(ctx context.Context, agentID string) (AuthToken, *time.Location, error) {
	userIDs, err := e.dir.UserIDsByAgentID(ctx, agentID)
	if err != nil {
		return AuthToken{}, nil, fmt.Errorf("account lookup failed: %v", err)
	}
	if len(userIDs) == 0 {
		return AuthToken{}, nil, fmt.Errorf("no accounts mapped to agent %s", agentID)
	}

	var cred directory.Credentials
	for _, uid := range userIDs {
		c, err := e.creds.ByUserID(ctx, uid)
		if err != nil {
			if errors.Is(err, directory.ErrNotFound) {
				continue
			}
			return AuthToken{}, nil, fmt.Errorf("credential lookup failed: %v", err)
		}
		if c.Usable() {
			cred = c
			break
		}
	}
	if !cred.Usable() {
		return AuthToken{}, nil, fmt.Errorf("no usable credentials for agent %s", agentID)
	}

	token, err := e.auth.Login(ctx, cred.Username, cred.Password)
	if err != nil {
		return AuthToken{}, nil, fmt.Errorf("platform login failed: %v", err)
	}

	tz := token.Timezone
	if tz == "" {
		tz, err = e.auth.CompanyTimezone(ctx, token)
		if err != nil {
			e.log.Warn("timezone lookup failed, defaulting to UTC", "agent_id", agentID, "err", err)
			tz = ""
		}
	}
	loc := time.UTC
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		} else {
			e.log.Warn("unknown timezone region, defaulting to UTC", "timezone", tz)
		}
	}
	return token, loc, nil
}

// failItem writes the failed audit entry first, then the terminal queue
// transition with the same message.
func (e *Engine) failItem(ctx context.Context, callID, msg string) {
	e.writeLog(ctx, callID, SyncFailed, nil, &msg)
	if err := e.queue.SetStatus(ctx, callID, SyncFailed, nil, &msg); err != nil {
		e.log.Error("queue transition failed", "call_id", callID, "err", err)
	}
	e.log.Warn("sync item failed", "call_id", callID, "reason", msg)
}

func (e *Engine) writeLog(ctx context.Context, callID, status string, bookingID, errMsg *string) {
	now := e.now().UTC()
	err := e.logs.Upsert(ctx, SyncLogEntry{
		CallLogID:    callID,
		Status:       status,
		BookingID:    bookingID,
		ErrorMessage: errMsg,
		SyncDate:     now,
		UpdatedAt:    now,
	})
	if err != nil {
		e.log.Error("sync log write failed", "call_id", callID, "status", status, "err", err)
	}
}
