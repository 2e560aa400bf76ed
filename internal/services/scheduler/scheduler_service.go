// Package scheduler runs the periodic pending-document sweep.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/corvid-labs/lectern/internal/common"
	"github.com/corvid-labs/lectern/internal/interfaces"
	"github.com/corvid-labs/lectern/internal/queue"
)

// Service re-enqueues documents that are RAG-enabled but were never
// attempted, for example when the process died between upload and the queue
// worker picking the job up. Failed ingestions are terminal (Processed is
// true) and are never touched by the sweep.
type Service struct {
	config    *common.SchedulerConfig
	documents interfaces.DocumentStorage
	ingestion interfaces.IngestionService
	queueMgr  *queue.Manager
	cron      *cron.Cron
	logger    arbor.ILogger
}

// NewService creates a new scheduler service
func NewService(
	config *common.SchedulerConfig,
	documents interfaces.DocumentStorage,
	ingestion interfaces.IngestionService,
	queueMgr *queue.Manager,
	logger arbor.ILogger,
) *Service {
	return &Service{
		config:    config,
		documents: documents,
		ingestion: ingestion,
		queueMgr:  queueMgr,
		cron:      cron.New(),
		logger:    logger,
	}
}

// Start registers the sweep on the configured cron schedule.
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.logger.Debug().Msg("Pending sweep scheduler disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		if err := s.Sweep(context.Background()); err != nil {
			s.logger.Warn().Err(err).Msg("Pending sweep failed")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Int("limit", s.config.Limit).
		Msg("Pending sweep scheduler started")

	return nil
}

// Stop halts the cron scheduler.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep enqueues ingestion for pending documents not already in the queue.
func (s *Service) Sweep(ctx context.Context) error {
	pending, err := s.documents.ListPending(ctx, s.config.Limit)
	if err != nil {
		return err
	}

	enqueued := 0
	for _, doc := range pending {
		queued, err := s.queueMgr.Contains(ctx, doc.ID)
		if err != nil {
			return err
		}
		if queued {
			continue
		}

		if err := s.ingestion.TriggerIngestion(ctx, doc.ID, doc.Processing.RAGEnabled); err != nil {
			s.logger.Warn().
				Err(err).
				Str("document_id", doc.ID).
				Msg("Failed to re-enqueue pending document")
			continue
		}
		enqueued++
	}

	if enqueued > 0 {
		s.logger.Info().
			Int("enqueued", enqueued).
			Int("pending", len(pending)).
			Msg("Pending sweep re-enqueued documents")
	}

	return nil
}
