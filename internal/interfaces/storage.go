package interfaces

import (
	"context"

	"github.com/corvid-labs/lectern/internal/models"
)

// DocumentStorage - interface for document persistence
type DocumentStorage interface {
	// CRUD operations
	SaveDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	// UpdateProcessingMetadata patches the processing metadata of a document.
	// This is the single write the ingestion pipeline performs on the
	// document record itself.
	UpdateProcessingMetadata(ctx context.Context, id string, meta models.ProcessingMetadata) error

	// ListPending returns up to limit documents that are RAG-enabled and
	// have never finished an ingestion attempt (processed == false).
	ListPending(ctx context.Context, limit int) ([]*models.Document, error)

	CountDocuments(ctx context.Context) (int, error)
}

// EmbeddingStorage - interface for fragment/embedding record persistence.
//
// PutEmbeddings must be atomic per document: a reader either sees all of a
// document's records or none of them. DeleteEmbeddings removes every record
// for a document (document delete cascade and failed-ingestion cleanup).
type EmbeddingStorage interface {
	PutEmbeddings(ctx context.Context, documentID string, records []*models.EmbeddingRecord) error
	GetEmbeddings(ctx context.Context, documentIDs []string) ([]*models.EmbeddingRecord, error)
	DeleteEmbeddings(ctx context.Context, documentID string) error
	CountEmbeddings(ctx context.Context, documentID string) (int, error)
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	DocumentStorage() DocumentStorage
	EmbeddingStorage() EmbeddingStorage
	Close() error
}
