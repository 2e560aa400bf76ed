package interfaces

import (
	"context"

	"github.com/corvid-labs/lectern/internal/models"
)

// EmbeddingService wraps the remote embedding call for both ingestion and
// querying.
type EmbeddingService interface {
	// GenerateEmbedding creates a vector embedding for text. Remote
	// failures surface as *models.EmbeddingServiceError, never as a
	// placeholder vector.
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// GenerateQueryEmbedding generates an embedding for a search query.
	GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error)

	// ModelName returns the embedding model identifier.
	ModelName() string

	// Dimension returns the embedding dimension.
	Dimension() int
}

// IngestionService coordinates chunking, embedding and persistence for one
// uploaded document, detached from the request that triggered it.
type IngestionService interface {
	// TriggerIngestion enqueues a background ingestion job for the
	// document and returns immediately. No-op when ragEnabled is false.
	TriggerIngestion(ctx context.Context, documentID string, ragEnabled bool) error

	// Ingest runs one ingestion synchronously. Called by the queue
	// worker; exported for the pending sweep and for tests. The outcome
	// is recorded on the document, never returned to an upload caller.
	Ingest(ctx context.Context, documentID string) error
}

// QueryService answers one natural-language query against the embeddings of
// the given documents.
type QueryService interface {
	// Answer returns a complete QueryResult or a typed error - never a
	// partial result. An empty documentIDs list means an empty candidate
	// set, not all documents.
	Answer(ctx context.Context, query string, documentIDs []string, topK int) (*models.QueryResult, error)
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event models.Event) error

// EventService manages the pub/sub event bus for ingestion lifecycle events.
type EventService interface {
	// Subscribe to an event type
	Subscribe(eventType models.EventType, handler EventHandler) error

	// Publish an event to all subscribers asynchronously
	Publish(ctx context.Context, event models.Event) error

	// Close shuts down the event service
	Close() error
}

// SchedulerService runs the periodic pending-document sweep.
type SchedulerService interface {
	Start() error
	Stop()
}
