package models

import (
	"time"
)

// EmbeddingRecord is one searchable fragment of a document together with its
// vector representation. Records are written once by the ingestion pipeline,
// never updated, and deleted only when the owning document is deleted or a
// failed ingestion cleans up after itself.
type EmbeddingRecord struct {
	// Identity
	ID         string `json:"id"`          // emb_{uuid}
	DocumentID string `json:"document_id"` // Owning document

	// Ordinal is the fragment's position within the source document.
	// Insertion order is meaningful: fragments must be retrievable in
	// source order even though ranking reorders them by relevance.
	Ordinal int `json:"ordinal"`

	// Content
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
	Model  string    `json:"model"` // Embedding model that produced the vector

	CreatedAt time.Time `json:"created_at"`
}
