package models

import (
	"time"
)

// EventType identifies a class of ingestion lifecycle event.
type EventType string

const (
	EventIngestionQueued    EventType = "ingestion_queued"
	EventIngestionStarted   EventType = "ingestion_started"
	EventIngestionProgress  EventType = "ingestion_progress"
	EventIngestionCompleted EventType = "ingestion_completed"
	EventIngestionFailed    EventType = "ingestion_failed"
)

// Event is one ingestion lifecycle notification published to subscribers and
// streamed to WebSocket clients.
type Event struct {
	Type       EventType              `json:"type"`
	DocumentID string                 `json:"document_id"`
	State      IngestionState         `json:"state,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}
