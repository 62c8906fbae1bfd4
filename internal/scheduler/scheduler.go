// Package scheduler drives the pipelines on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"leadsync/internal/config"
	"leadsync/internal/runner"
)

// Scheduler registers the three pipeline jobs on a cron instance. Each job
// runs once at startup, then on its schedule; the runner's lock makes an
// overlapping invocation skip instead of doubling up.
type Scheduler struct {
	cron *cron.Cron
	run  *runner.Runner
	log  *slog.Logger
}

func New(run *runner.Runner, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{cron: cron.New(), run: run, log: log}
}

// Start registers the jobs and starts the cron loop. Jobs receive ctx so an
// in-flight run observes process shutdown.
func (s *Scheduler) Start(ctx context.Context, schedules config.ScheduleConfig) error {
	jobs := []struct {
		name string
		spec string
		fn   func(context.Context) error
	}{
		{"ingestion", schedules.Ingestion, func(ctx context.Context) error {
			_, err := s.run.RunIngestion(ctx)
			return err
		}},
		{"enrichment", schedules.Enrichment, func(ctx context.Context) error {
			_, err := s.run.RunEnrichment(ctx)
			return err
		}},
		{"booking-sync", schedules.BookingSync, func(ctx context.Context) error {
			_, err := s.run.RunBookingSync(ctx)
			return err
		}},
	}

	for _, job := range jobs {
		job := job
		wrapped := func() {
			if err := job.fn(ctx); err != nil {
				if errors.Is(err, runner.ErrAlreadyRunning) {
					s.log.Info("job skipped, previous run still holds the lock", "job", job.name)
					return
				}
				s.log.Error("scheduled job failed", "job", job.name, "err", err)
			}
		}
		if _, err := s.cron.AddFunc(job.spec, wrapped); err != nil {
			return fmt.Errorf("scheduler: register %s (%q): %w", job.name, job.spec, err)
		}
		// One immediate pass at startup so a fresh deploy catches up without
		// waiting for the first tick.
		go wrapped()
		s.log.Info("job scheduled", "job", job.name, "schedule", job.spec)
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
