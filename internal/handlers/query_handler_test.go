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

// mockQueryService implements interfaces.QueryService for testing
type mockQueryService struct {
	answerFunc func(ctx context.Context, query string, documentIDs []string, topK int) (*models.QueryResult, error)
}

func (m *mockQueryService) Answer(ctx context.Context, query string, documentIDs []string, topK int) (*models.QueryResult, error) {
	if m.answerFunc != nil {
		return m.answerFunc(ctx, query, documentIDs, topK)
	}
	return nil, errors.New("not configured")
}

func postQuery(svc *mockQueryService, body interface{}) *httptest.ResponseRecorder {
	handler := NewQueryHandler(svc, arbor.NewLogger())
	data, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/api/query", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler.QueryHandler(rec, req)
	return rec
}

func TestQueryHandler_Success(t *testing.T) {
	svc := &mockQueryService{
		answerFunc: func(ctx context.Context, query string, documentIDs []string, topK int) (*models.QueryResult, error) {
			assert.Equal(t, "what is lectern?", query)
			assert.Equal(t, []string{"doc_1", "doc_2"}, documentIDs)
			assert.Equal(t, 5, topK)
			return &models.QueryResult{
				Query:   query,
				Context: []string{"fragment one"},
				Answer:  "Lectern is a document query service.",
				Assessment: models.Assessment{
					ContextRelevance:      0.9,
					ResponseQuality:       0.8,
					SuggestedImprovements: []string{},
				},
			}, nil
		},
	}

	rec := postQuery(svc, QueryRequest{
		Query:       "what is lectern?",
		DocumentIDs: []string{"doc_1", "doc_2"},
		TopK:        5,
	})

	assert.Equal(t, http.StatusOK, rec.Code)

	var result models.QueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Lectern is a document query service.", result.Answer)
	assert.Equal(t, 0.9, result.Assessment.ContextRelevance)
}

func TestQueryHandler_EmptyQueryRejected(t *testing.T) {
	rec := postQuery(&mockQueryService{}, QueryRequest{Query: "  "})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryHandler_MethodNotAllowed(t *testing.T) {
	handler := NewQueryHandler(&mockQueryService{}, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/query", nil)
	rec := httptest.NewRecorder()
	handler.QueryHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestQueryHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "document not found",
			err:        models.ErrDocumentNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "embedding service failure",
			err:        &models.EmbeddingServiceError{Model: "m", Cause: errors.New("down")},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "empty generation response",
			err:        models.ErrGenerationEmptyResponse,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "assessment parse failure",
			err:        &models.AssessmentParseError{Raw: "junk", Cause: errors.New("no json")},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "unexpected failure",
			err:        errors.New("something else"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockQueryService{
				answerFunc: func(ctx context.Context, query string, documentIDs []string, topK int) (*models.QueryResult, error) {
					return nil, tt.err
				},
			}

			rec := postQuery(svc, QueryRequest{Query: "query"})

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "error", resp["status"])
			assert.NotEmpty(t, resp["error"])
		})
	}
}
