// Package scheduler wires up the cron job that periodically drains queued
// source posts through the ingestion pipeline.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/remotehunt/remotehunt/internal/services"
)

const batchLimit = 50

// Scheduler wraps robfig/cron and manages the ingest loop.
type Scheduler struct {
	cron   *cron.Cron
	ingest *services.IngestService
	log    *zap.SugaredLogger
	spec   string
}

// New creates a Scheduler that fires every intervalMin minutes.
func New(ingest *services.IngestService, log *zap.SugaredLogger, intervalMin int) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		ingest: ingest,
		log:    log,
		spec:   fmt.Sprintf("@every %dm", intervalMin),
	}
}

// Start registers the job and starts the scheduler. Also runs one batch
// immediately so queued posts don't wait for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runBatch(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Infow("scheduler started", "spec", s.spec)

	go s.runBatch(ctx)
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) runBatch(ctx context.Context) {
	stats, err := s.ingest.ProcessPending(ctx, batchLimit)
	if err != nil {
		s.log.Errorw("batch run failed", "error", err)
		return
	}
	if stats.Processed == 0 {
		return
	}
	s.log.Infow("batch run complete",
		"run_id", stats.RunID,
		"processed", stats.Processed,
		"created", stats.Created,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
}
