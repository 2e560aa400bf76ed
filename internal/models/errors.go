package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions callers branch on with errors.Is.
var (
	// ErrDocumentNotFound is returned when a document id does not exist
	// in the store.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrGenerationEmptyResponse is returned when the generation service
	// answers with no content. An empty answer is a failure, never an
	// empty string.
	ErrGenerationEmptyResponse = errors.New("generation service returned empty response")

	// ErrNoMessage is returned when the ingestion queue is empty.
	ErrNoMessage = errors.New("no messages in queue")
)

// EmbeddingServiceError wraps a failure of the remote embedding service,
// carrying the underlying cause. The embedding client never substitutes a
// zero or placeholder vector.
type EmbeddingServiceError struct {
	Model string
	Cause error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service failed (model %s): %v", e.Model, e.Cause)
}

func (e *EmbeddingServiceError) Unwrap() error {
	return e.Cause
}

// AssessmentParseError is returned when the structured assessment response
// cannot be parsed into the expected fields. The assessor must not silently
// substitute zeros.
type AssessmentParseError struct {
	Raw   string
	Cause error
}

func (e *AssessmentParseError) Error() string {
	return fmt.Sprintf("failed to parse assessment response: %v", e.Cause)
}

func (e *AssessmentParseError) Unwrap() error {
	return e.Cause
}

// IngestionError records the terminal failure of one ingestion run. It is
// written to document metadata rather than returned to the caller, since the
// triggering request has already moved on.
type IngestionError struct {
	DocumentID string
	State      IngestionState
	Cause      error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion failed for %s during %s: %v", e.DocumentID, e.State, e.Cause)
}

func (e *IngestionError) Unwrap() error {
	return e.Cause
}
