package models

import (
	"encoding/json"
)

// QueueMessage is the structure stored in the ingestion queue.
// Keep it simple - just enough to route the job.
type QueueMessage struct {
	ID      string          `json:"id"`      // Message id assigned at enqueue time
	Type    string          `json:"type"`    // Job type for handler routing
	Payload json.RawMessage `json:"payload"` // Job-specific data (passed through)
}

// IngestionPayload is the payload of an ingestion queue message.
type IngestionPayload struct {
	DocumentID string `json:"document_id"`
}
