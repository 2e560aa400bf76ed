package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/corvid-labs/lectern/internal/models"
)

// mockDocumentStorage implements interfaces.DocumentStorage for testing
type mockDocumentStorage struct {
	saveFunc func(ctx context.Context, doc *models.Document) error
	getFunc  func(ctx context.Context, id string) (*models.Document, error)
	saved    []*models.Document
}

func (m *mockDocumentStorage) SaveDocument(ctx context.Context, doc *models.Document) error {
	m.saved = append(m.saved, doc)
	if m.saveFunc != nil {
		return m.saveFunc(ctx, doc)
	}
	return nil
}

func (m *mockDocumentStorage) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, models.ErrDocumentNotFound
}

func (m *mockDocumentStorage) DeleteDocument(ctx context.Context, id string) error { return nil }

func (m *mockDocumentStorage) UpdateProcessingMetadata(ctx context.Context, id string, meta models.ProcessingMetadata) error {
	return nil
}

func (m *mockDocumentStorage) ListPending(ctx context.Context, limit int) ([]*models.Document, error) {
	return nil, nil
}

func (m *mockDocumentStorage) CountDocuments(ctx context.Context) (int, error) { return 0, nil }

// mockIngestionService implements interfaces.IngestionService for testing
type mockIngestionService struct {
	triggerFunc func(ctx context.Context, documentID string, ragEnabled bool) error
	triggered   []string
}

func (m *mockIngestionService) TriggerIngestion(ctx context.Context, documentID string, ragEnabled bool) error {
	m.triggered = append(m.triggered, documentID)
	if m.triggerFunc != nil {
		return m.triggerFunc(ctx, documentID, ragEnabled)
	}
	return nil
}

func (m *mockIngestionService) Ingest(ctx context.Context, documentID string) error { return nil }

func newTestDocumentHandler(docs *mockDocumentStorage, ing *mockIngestionService) *DocumentHandler {
	return NewDocumentHandler(docs, ing, arbor.NewLogger())
}

func postDocument(handler *DocumentHandler, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/api/documents", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler.UploadHandler(rec, req)
	return rec
}

func TestUploadHandler_AcceptsAndQueues(t *testing.T) {
	docs := &mockDocumentStorage{}
	ing := &mockIngestionService{}
	handler := newTestDocumentHandler(docs, ing)

	rec := postDocument(handler, UploadRequest{
		Title:      "Design Notes",
		Content:    "some document content",
		OwnerID:    "user-1",
		RAGEnabled: true,
	})

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["id"])
	assert.Equal(t, false, resp["processed"], "response returns before ingestion completes")

	require.Len(t, docs.saved, 1)
	assert.Equal(t, "Design Notes", docs.saved[0].Title)
	assert.False(t, docs.saved[0].Processing.Processed)
	require.Len(t, ing.triggered, 1)
	assert.Equal(t, docs.saved[0].ID, ing.triggered[0])
}

func TestUploadHandler_EmptyContentRejected(t *testing.T) {
	docs := &mockDocumentStorage{}
	ing := &mockIngestionService{}
	handler := newTestDocumentHandler(docs, ing)

	rec := postDocument(handler, UploadRequest{Title: "empty", Content: "   "})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, docs.saved)
	assert.Empty(t, ing.triggered)
}

func TestUploadHandler_InvalidBody(t *testing.T) {
	handler := newTestDocumentHandler(&mockDocumentStorage{}, &mockIngestionService{})

	req := httptest.NewRequest("POST", "/api/documents", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	handler.UploadHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadHandler_MethodNotAllowed(t *testing.T) {
	handler := newTestDocumentHandler(&mockDocumentStorage{}, &mockIngestionService{})

	req := httptest.NewRequest("GET", "/api/documents", nil)
	rec := httptest.NewRecorder()
	handler.UploadHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUploadHandler_SaveFailure(t *testing.T) {
	docs := &mockDocumentStorage{
		saveFunc: func(ctx context.Context, doc *models.Document) error {
			return errors.New("store offline")
		},
	}
	ing := &mockIngestionService{}
	handler := newTestDocumentHandler(docs, ing)

	rec := postDocument(handler, UploadRequest{Content: "content"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, ing.triggered)
}

func TestStatusHandler_ReturnsProcessingMetadata(t *testing.T) {
	docs := &mockDocumentStorage{
		getFunc: func(ctx context.Context, id string) (*models.Document, error) {
			require.Equal(t, "doc_abc", id)
			return &models.Document{
				ID:    "doc_abc",
				Title: "Stored",
				Processing: models.ProcessingMetadata{
					RAGEnabled:     true,
					Processed:      true,
					EmbeddingCount: 4,
				},
			}, nil
		},
	}
	handler := newTestDocumentHandler(docs, &mockIngestionService{})

	req := httptest.NewRequest("GET", "/api/documents/doc_abc/status", nil)
	rec := httptest.NewRecorder()
	handler.StatusHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ID         string                    `json:"id"`
		Processing models.ProcessingMetadata `json:"processing"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "doc_abc", resp.ID)
	assert.True(t, resp.Processing.Processed)
	assert.Equal(t, 4, resp.Processing.EmbeddingCount)
}

func TestStatusHandler_NotFound(t *testing.T) {
	handler := newTestDocumentHandler(&mockDocumentStorage{}, &mockIngestionService{})

	req := httptest.NewRequest("GET", "/api/documents/doc_missing/status", nil)
	rec := httptest.NewRecorder()
	handler.StatusHandler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusHandler_MalformedPath(t *testing.T) {
	handler := newTestDocumentHandler(&mockDocumentStorage{}, &mockIngestionService{})

	req := httptest.NewRequest("GET", "/api/documents/status", nil)
	rec := httptest.NewRecorder()
	handler.StatusHandler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
