// Package runner serializes and records pipeline runs.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"leadsync/internal/booking"
	"leadsync/internal/enrichment"
	"leadsync/internal/ingestion"
	"leadsync/pkg/utils"
)

// ErrAlreadyRunning means another invocation holds the job's run lock.
var ErrAlreadyRunning = errors.New("runner: job already running")

// lockTTL bounds how long a crashed run can block its successor.
const lockTTL = 15 * time.Minute

// Runner executes the three pipelines behind per-job redis run locks and
// keeps the most recent summary of each for the ops API.
type Runner struct {
	ingest *ingestion.Pipeline
	enrich *enrichment.Pipeline
	sync   *booking.Engine
	rdb    *redis.Client
	log    *slog.Logger

	mu             sync.Mutex
	lastIngestion  *ingestion.RunSummary
	lastEnrichment *enrichment.Summary
	lastSync       *booking.Summary
}

// New builds a Runner. rdb may be nil, in which case runs are not guarded by
// a distributed lock (single-instance deployments and tests).
func New(ingest *ingestion.Pipeline, enrich *enrichment.Pipeline, syncEngine *booking.Engine, rdb *redis.Client, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{ingest: ingest, enrich: enrich, sync: syncEngine, rdb: rdb, log: log}
}

func (r *Runner) RunIngestion(ctx context.Context) (ingestion.RunSummary, error) {
	var sum ingestion.RunSummary
	err := r.withLock(ctx, "leadsync:run:ingestion", func() error {
		var err error
		sum, err = r.ingest.Run(ctx)
		if err == nil {
			r.mu.Lock()
			r.lastIngestion = &sum
			r.mu.Unlock()
		}
		return err
	})
	return sum, err
}

func (r *Runner) RunEnrichment(ctx context.Context) (enrichment.Summary, error) {
	var sum enrichment.Summary
	err := r.withLock(ctx, "leadsync:run:enrichment", func() error {
		var err error
		sum, err = r.enrich.Run(ctx)
		if err == nil {
			r.mu.Lock()
			r.lastEnrichment = &sum
			r.mu.Unlock()
		}
		return err
	})
	return sum, err
}

func (r *Runner) RunBookingSync(ctx context.Context) (booking.Summary, error) {
	var sum booking.Summary
	err := r.withLock(ctx, "leadsync:run:booking-sync", func() error {
		var err error
		sum, err = r.sync.Run(ctx)
		if err == nil {
			r.mu.Lock()
			r.lastSync = &sum
			r.mu.Unlock()
		}
		return err
	})
	return sum, err
}

// Latest returns the most recent summary of each job, nil when a job has not
// completed yet in this process.
func (r *Runner) Latest() (*ingestion.RunSummary, *enrichment.Summary, *booking.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastIngestion, r.lastEnrichment, r.lastSync
}

func (r *Runner) withLock(ctx context.Context, key string, fn func() error) error {
	if r.rdb == nil {
		return fn()
	}

	owner := uuid.NewString()
	ok, err := utils.AcquireRunLock(ctx, r.rdb, key, owner, lockTTL)
	if err != nil {
		return fmt.Errorf("runner: acquire lock %s: %w", key, err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := utils.ReleaseRunLock(context.WithoutCancel(ctx), r.rdb, key, owner); err != nil {
			r.log.Error("run lock release failed", "key", key, "err", err)
		}
	}()

	return fn()
}
