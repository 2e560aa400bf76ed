package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/corvid-labs/lectern/internal/interfaces"
	"github.com/corvid-labs/lectern/internal/models"
)

// QueryRequest is the body of POST /api/query
type QueryRequest struct {
	Query       string   `json:"query"`
	DocumentIDs []string `json:"document_ids"`
	TopK        int      `json:"top_k,omitempty"`
}

// QueryHandler handles query requests
type QueryHandler struct {
	queryService interfaces.QueryService
	logger       arbor.ILogger
}

// NewQueryHandler creates a new query handler with dependencies
func NewQueryHandler(queryService interfaces.QueryService, logger arbor.ILogger) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
		logger:       logger,
	}
}

// QueryHandler handles POST /api/query. The query either fully succeeds
// with a complete result or fails with a typed error - no partial results.
func (h *QueryHandler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		WriteError(w, http.StatusBadRequest, "Query is required")
		return
	}

	result, err := h.queryService.Answer(r.Context(), req.Query, req.DocumentIDs, req.TopK)
	if err != nil {
		h.writeQueryError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// writeQueryError maps the error taxonomy to HTTP statuses with a
// human-readable cause.
func (h *QueryHandler) writeQueryError(w http.ResponseWriter, err error) {
	var embErr *models.EmbeddingServiceError
	var parseErr *models.AssessmentParseError

	switch {
	case errors.Is(err, models.ErrDocumentNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrGenerationEmptyResponse),
		errors.As(err, &embErr),
		errors.As(err, &parseErr):
		h.logger.Warn().Err(err).Msg("Query failed at remote service boundary")
		WriteError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error().Err(err).Msg("Query failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
