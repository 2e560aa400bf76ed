package models

import (
	"time"
)

// Document represents an uploaded document tracked by the ingestion pipeline.
// Raw content is stored as-is; derived embedding records live in their own
// table keyed by DocumentID.
type Document struct {
	// Identity
	ID      string `json:"id"`       // doc_{uuid}
	OwnerID string `json:"owner_id"` // Reference to the owning user (managed externally)

	// Content
	Title   string `json:"title"`
	Content string `json:"content"`

	// Processing state written by the ingestion pipeline
	Processing ProcessingMetadata `json:"processing"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProcessingMetadata tracks the outcome of the asynchronous ingestion run
// for one document. It is written exactly once, when the background job
// finishes (success or failure), and never mutated again for ingestion
// purposes.
//
// Invariant: while Processed is false no embedding records for the document
// are visible in a complete state. Once Processed is true, either
// EmbeddingCount records exist or ProcessingError is true and no partial
// records remain.
type ProcessingMetadata struct {
	RAGEnabled      bool       `json:"rag_enabled"`
	Processed       bool       `json:"processed"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	EmbeddingCount  int        `json:"embedding_count,omitempty"`
	ProcessingError bool       `json:"processing_error,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
}

// IngestionState identifies where a document is in the ingestion state
// machine: Uploaded -> Chunking -> Embedding -> Persisting -> Done | Failed.
type IngestionState string

const (
	IngestionStateUploaded   IngestionState = "uploaded"
	IngestionStateChunking   IngestionState = "chunking"
	IngestionStateEmbedding  IngestionState = "embedding"
	IngestionStatePersisting IngestionState = "persisting"
	IngestionStateDone       IngestionState = "done"
	IngestionStateFailed     IngestionState = "failed"
)
