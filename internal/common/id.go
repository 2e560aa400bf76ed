package common

import (
	"github.com/google/uuid"
)

// NewDocumentID generates a unique document ID with the "doc_" prefix
// Format: doc_<uuid>
func NewDocumentID() string {
	return "doc_" + uuid.New().String()
}

// NewEmbeddingID generates a unique embedding record ID with the "emb_" prefix
// Format: emb_<uuid>
func NewEmbeddingID() string {
	return "emb_" + uuid.New().String()
}

// NewMessageID generates a unique queue message ID
func NewMessageID() string {
	return uuid.New().String()
}
