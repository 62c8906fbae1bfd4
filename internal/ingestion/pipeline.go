package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"leadsync/internal/calls"
	"leadsync/internal/directory"
	"leadsync/internal/provider"
	"leadsync/pkg/utils"
)

const (
	// lookbackWindow bounds how far back a fetch reaches.
	lookbackWindow = 300 * time.Hour
	// fetchLimit caps a single provider listing response.
	fetchLimit = 1000
	// maxPerRun caps how many records one run processes per agent; the
	// excess is picked up by a later run, not dropped.
	maxPerRun = 50
	// mapBatchSize is the bounded fan-out width for record mapping.
	mapBatchSize = 10
	// upsertChunkSize bounds one store upsert statement.
	upsertChunkSize = 100
)

// AgentResult is the per-agent outcome of an ingestion run.
type AgentResult struct {
	AgentID   string `json:"agent_id"`
	Fetched   int    `json:"fetched"`
	Existing  int    `json:"existing"`
	Processed int    `json:"processed"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Error     string `json:"error,omitempty"`
}

// RunSummary aggregates an ingestion run across all agents.
type RunSummary struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Agents     []AgentResult `json:"agents"`
	Totals     AgentResult   `json:"totals"`
}

// Pipeline ingests provider call snapshots into the store, one agent at a
// time.
type Pipeline struct {
	lister provider.Lister
	repo   calls.Repository
	dir    directory.Directory
	log    *slog.Logger
	now    func() time.Time
}

func NewPipeline(lister provider.Lister, repo calls.Repository, dir directory.Directory, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{lister: lister, repo: repo, dir: dir, log: log, now: time.Now}
}

// IngestForAgent fetches, reconciles, maps and upserts one agent's recent
// calls. Chunk-level upsert failures are counted, not propagated; only
// fetch/lookup failures return an error.
func (p *Pipeline) IngestForAgent(ctx context.Context, agentID string) (AgentResult, error) {
	res := AgentResult{AgentID: agentID}
	now := p.now().UTC()

	fetched, err := p.lister.ListCalls(ctx, provider.ListParams{
		AgentID:        agentID,
		StartAfter:     now.Add(-lookbackWindow),
		Limit:          fetchLimit,
		SortDescending: true,
	})
	if err != nil {
		return res, fmt.Errorf("ingestion: fetch calls for agent %s: %w", agentID, err)
	}
	res.Fetched = len(fetched)
	if len(fetched) == 0 {
		p.log.Info("no provider activity", "agent_id", agentID)
		return res, nil
	}

	ids := make([]string, 0, len(fetched))
	for _, c := range fetched {
		ids = append(ids, c.CallID)
	}
	stored, err := p.repo.StatusByIDs(ctx, ids)
	if err != nil {
		return res, fmt.Errorf("ingestion: status lookup for agent %s: %w", agentID, err)
	}
	res.Existing = len(stored)

	toProcess := Reconcile(fetched, stored)
	if len(toProcess) > maxPerRun {
		p.log.Info("deferring excess records to a later run",
			"agent_id", agentID, "pending", len(toProcess), "cap", maxPerRun)
		toProcess = toProcess[:maxPerRun]
	}
	res.Processed = len(toProcess)
	if len(toProcess) == 0 {
		return res, nil
	}

	// Bounded fan-out with a join barrier per batch. Records are independent;
	// only batch order is preserved.
	var (
		mu     sync.Mutex
		mapped = make([]calls.CallRecord, 0, len(toProcess))
	)
	utils.ForEachBatch(ctx, toProcess, mapBatchSize, func(ctx context.Context, raw provider.RawCall) {
		rec := mapRecord(raw, agentID, now)
		mu.Lock()
		mapped = append(mapped, rec)
		mu.Unlock()
	})

	for _, chunk := range utils.Chunk(mapped, upsertChunkSize) {
		if err := p.repo.UpsertBatch(ctx, chunk); err != nil {
			// A failed chunk fails all of its rows but later chunks still run.
			p.log.Error("upsert chunk failed", "agent_id", agentID, "rows", len(chunk), "err", err)
			res.Failed += len(chunk)
			continue
		}
		res.Succeeded += len(chunk)
	}

	p.log.Info("agent ingestion complete",
		"agent_id", agentID,
		"fetched", res.Fetched,
		"existing", res.Existing,
		"processed", res.Processed,
		"succeeded", res.Succeeded,
		"failed", res.Failed,
	)
	return res, nil
}

// Run ingests every agent known to the directory, sequentially. A failing
// agent is reported in its result and never aborts the rest of the run.
// Only the inability to enumerate agents is fatal.
func (p *Pipeline) Run(ctx context.Context) (RunSummary, error) {
	sum := RunSummary{StartedAt: p.now().UTC()}

	agents, err := p.dir.AgentIDs(ctx)
	if err != nil {
		return sum, fmt.Errorf("ingestion: list agents: %w", err)
	}

	for _, agentID := range agents {
		res := p.runAgent(ctx, agentID)
		sum.Agents = append(sum.Agents, res)
		sum.Totals.Fetched += res.Fetched
		sum.Totals.Existing += res.Existing
		sum.Totals.Processed += res.Processed
		sum.Totals.Succeeded += res.Succeeded
		sum.Totals.Failed += res.Failed
	}

	sum.FinishedAt = p.now().UTC()
	p.log.Info("ingestion run complete",
		"agents", len(sum.Agents),
		"fetched", sum.Totals.Fetched,
		"processed", sum.Totals.Processed,
		"succeeded", sum.Totals.Succeeded,
		"failed", sum.Totals.Failed,
	)
	return sum, nil
}

func (p *Pipeline) runAgent(ctx context.Context, agentID string) (res AgentResult) {
	defer func() {
		if r := recover(); r != nil {
			res.AgentID = agentID
			res.Error = fmt.Sprintf("panic: %v", r)
			p.log.Error("agent ingestion panicked", "agent_id", agentID, "panic", r)
		}
	}()

	res, err := p.IngestForAgent(ctx, agentID)
	if err != nil {
		res.Error = err.Error()
		p.log.Error("agent ingestion failed", "agent_id", agentID, "err", err)
	}
	return res
}
