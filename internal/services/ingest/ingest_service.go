// Package ingest coordinates chunking, embedding and persistence for
// uploaded documents, detached from the requests that trigger it.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/corvid-labs/lectern/internal/common"
	"github.com/corvid-labs/lectern/internal/interfaces"
	"github.com/corvid-labs/lectern/internal/models"
	"github.com/corvid-labs/lectern/internal/queue"
	"github.com/corvid-labs/lectern/internal/services/chunker"
)

// JobTypeIngest routes ingestion messages to this service's handler.
const JobTypeIngest = "ingest"

// Service implements the IngestionService interface. One ingestion walks the
// state machine Uploaded -> Chunking -> Embedding -> Persisting -> Done |
// Failed; the outcome is recorded on the document's processing metadata and
// never returned to the upload caller.
type Service struct {
	documents  interfaces.DocumentStorage
	embeddings interfaces.EmbeddingStorage
	embedder   interfaces.EmbeddingService
	chunker    *chunker.Chunker
	queueMgr   *queue.Manager
	events     interfaces.EventService
	logger     arbor.ILogger
}

// NewService creates a new ingestion service
func NewService(
	documents interfaces.DocumentStorage,
	embeddings interfaces.EmbeddingStorage,
	embedder interfaces.EmbeddingService,
	chunker *chunker.Chunker,
	queueMgr *queue.Manager,
	events interfaces.EventService,
	logger arbor.ILogger,
) *Service {
	return &Service{
		documents:  documents,
		embeddings: embeddings,
		embedder:   embedder,
		chunker:    chunker,
		queueMgr:   queueMgr,
		events:     events,
		logger:     logger,
	}
}

// RegisterHandlers registers this service's job handlers on the worker pool.
func (s *Service) RegisterHandlers(wp *queue.WorkerPool) {
	wp.RegisterHandler(JobTypeIngest, func(ctx context.Context, msg *queue.Message) error {
		var payload models.IngestionPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("invalid ingestion payload: %w", err)
		}
		return s.Ingest(ctx, payload.DocumentID)
	})
}

// TriggerIngestion enqueues a background ingestion job for the document and
// returns immediately. No-op when ragEnabled is false.
func (s *Service) TriggerIngestion(ctx context.Context, documentID string, ragEnabled bool) error {
	if !ragEnabled {
		s.logger.Debug().
			Str("document_id", documentID).
			Msg("RAG disabled for document, skipping ingestion")
		return nil
	}

	payload, err := json.Marshal(models.IngestionPayload{DocumentID: documentID})
	if err != nil {
		return fmt.Errorf("failed to marshal ingestion payload: %w", err)
	}

	msg := queue.Message{
		ID:      common.NewMessageID(),
		Type:    JobTypeIngest,
		Payload: payload,
	}
	if err := s.queueMgr.Enqueue(ctx, msg); err != nil {
		return fmt.Errorf("failed to enqueue ingestion for %s: %w", documentID, err)
	}

	s.events.Publish(ctx, models.Event{
		Type:       models.EventIngestionQueued,
		DocumentID: documentID,
		State:      models.IngestionStateUploaded,
	})

	s.logger.Info().
		Str("document_id", documentID).
		Msg("Ingestion queued")

	return nil
}

// Ingest runs one ingestion synchronously. Called by the queue worker, by
// the pending sweep, and directly in tests.
//
// Persistence is all-or-nothing: every embedding record is written in one
// transaction and the metadata flag flips last, so a reader never sees a
// half-ingested document. Any failure is terminal - no automatic retry.
func (s *Service) Ingest(ctx context.Context, documentID string) error {
	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		// The document disappeared before the job ran. There is no
		// record to mark failed; log and stop.
		if errors.Is(err, models.ErrDocumentNotFound) {
			s.logger.Warn().
				Str("document_id", documentID).
				Msg("Document vanished before ingestion, skipping")
			s.publishState(ctx, documentID, models.IngestionStateFailed, models.EventIngestionFailed, nil)
			return nil
		}
		return fmt.Errorf("failed to load document %s: %w", documentID, err)
	}

	if doc.Processing.Processed {
		s.logger.Debug().
			Str("document_id", documentID).
			Msg("Document already processed, skipping")
		return nil
	}

	s.publishState(ctx, documentID, models.IngestionStateChunking, models.EventIngestionStarted, nil)

	// Chunking
	fragments := s.chunker.Chunk(doc.Content)

	s.logger.Debug().
		Str("document_id", documentID).
		Int("fragments", len(fragments)).
		Msg("Chunked document")

	// Embedding
	s.publishState(ctx, documentID, models.IngestionStateEmbedding, models.EventIngestionProgress, map[string]interface{}{
		"fragments": len(fragments),
	})

	records := make([]*models.EmbeddingRecord, 0, len(fragments))
	for i, fragment := range fragments {
		vector, err := s.embedder.GenerateEmbedding(ctx, fragment)
		if err != nil {
			return s.fail(ctx, documentID, models.IngestionStateEmbedding, err)
		}

		records = append(records, &models.EmbeddingRecord{
			ID:         common.NewEmbeddingID(),
			DocumentID: documentID,
			Ordinal:    i,
			Text:       fragment,
			Vector:     vector,
			Model:      s.embedder.ModelName(),
		})
	}

	// Persisting
	s.publishState(ctx, documentID, models.IngestionStatePersisting, models.EventIngestionProgress, nil)

	if err := s.embeddings.PutEmbeddings(ctx, documentID, records); err != nil {
		return s.fail(ctx, documentID, models.IngestionStatePersisting, err)
	}

	// Done: flip the metadata flag last, after all records are committed.
	now := time.Now()
	meta := doc.Processing
	meta.Processed = true
	meta.ProcessedAt = &now
	meta.EmbeddingCount = len(records)
	meta.ProcessingError = false
	meta.ErrorMessage = ""

	if err := s.documents.UpdateProcessingMetadata(ctx, documentID, meta); err != nil {
		// The records are committed but the flag flip failed. Remove
		// them so no reader ever sees an unprocessed document with
		// embeddings.
		if delErr := s.embeddings.DeleteEmbeddings(ctx, documentID); delErr != nil {
			s.logger.Error().
				Err(delErr).
				Str("document_id", documentID).
				Msg("Failed to clean up embeddings after metadata write failure")
		}
		return s.fail(ctx, documentID, models.IngestionStatePersisting, err)
	}

	s.publishState(ctx, documentID, models.IngestionStateDone, models.EventIngestionCompleted, map[string]interface{}{
		"embedding_count": len(records),
	})

	s.logger.Info().
		Str("document_id", documentID).
		Int("embedding_count", len(records)).
		Msg("Ingestion completed")

	return nil
}

// fail records a terminal ingestion failure on the document. Processed is
// still set true to signal "ingestion attempt finished"; ProcessingError
// distinguishes the outcome. Partial embedding records are removed so the
// all-or-nothing invariant holds.
func (s *Service) fail(ctx context.Context, documentID string, state models.IngestionState, cause error) error {
	ingErr := &models.IngestionError{DocumentID: documentID, State: state, Cause: cause}

	s.logger.Error().
		Err(cause).
		Str("document_id", documentID).
		Str("state", string(state)).
		Msg("Ingestion failed")

	if err := s.embeddings.DeleteEmbeddings(ctx, documentID); err != nil {
		s.logger.Warn().
			Err(err).
			Str("document_id", documentID).
			Msg("Failed to delete partial embeddings")
	}

	now := time.Now()
	meta := models.ProcessingMetadata{
		RAGEnabled:      true,
		Processed:       true,
		ProcessedAt:     &now,
		EmbeddingCount:  0,
		ProcessingError: true,
		ErrorMessage:    cause.Error(),
	}
	if err := s.documents.UpdateProcessingMetadata(ctx, documentID, meta); err != nil {
		if !errors.Is(err, models.ErrDocumentNotFound) {
			s.logger.Error().
				Err(err).
				Str("document_id", documentID).
				Msg("Failed to record ingestion failure on document")
		}
	}

	s.publishState(ctx, documentID, models.IngestionStateFailed, models.EventIngestionFailed, map[string]interface{}{
		"error": cause.Error(),
	})

	return ingErr
}

func (s *Service) publishState(ctx context.Context, documentID string, state models.IngestionState, eventType models.EventType, payload map[string]interface{}) {
	s.events.Publish(ctx, models.Event{
		Type:       eventType,
		DocumentID: documentID,
		State:      state,
		Payload:    payload,
	})
}
