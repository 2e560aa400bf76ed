package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/corvid-labs/lectern/internal/common"
	"github.com/corvid-labs/lectern/internal/interfaces"
	"github.com/corvid-labs/lectern/internal/models"
)

// UploadRequest is the body of POST /api/documents
type UploadRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	OwnerID    string `json:"owner_id"`
	RAGEnabled bool   `json:"rag_enabled"`
}

// DocumentHandler handles document upload and status requests
type DocumentHandler struct {
	documents interfaces.DocumentStorage
	ingestion interfaces.IngestionService
	logger    arbor.ILogger
}

// NewDocumentHandler creates a new document handler with dependencies
func NewDocumentHandler(documents interfaces.DocumentStorage, ingestion interfaces.IngestionService, logger arbor.ILogger) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		ingestion: ingestion,
		logger:    logger,
	}
}

// UploadHandler handles POST /api/documents. The document is stored
// synchronously; ingestion runs in the background and the response returns
// before it completes.
func (h *DocumentHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		WriteError(w, http.StatusBadRequest, "Document content is required")
		return
	}

	doc := &models.Document{
		ID:      common.NewDocumentID(),
		Title:   req.Title,
		Content: req.Content,
		OwnerID: req.OwnerID,
		Processing: models.ProcessingMetadata{
			RAGEnabled: req.RAGEnabled,
			Processed:  false,
		},
	}

	if err := h.documents.SaveDocument(r.Context(), doc); err != nil {
		h.logger.Error().Err(err).Msg("Failed to save uploaded document")
		WriteError(w, http.StatusInternalServerError, "Failed to save document")
		return
	}

	if err := h.ingestion.TriggerIngestion(r.Context(), doc.ID, req.RAGEnabled); err != nil {
		h.logger.Error().
			Err(err).
			Str("document_id", doc.ID).
			Msg("Failed to queue ingestion")
		WriteError(w, http.StatusInternalServerError, "Failed to queue ingestion")
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"id":          doc.ID,
		"rag_enabled": req.RAGEnabled,
		"processed":   false,
	})
}

// StatusHandler handles GET /api/documents/{id}/status, exposing the
// processing metadata written by the ingestion pipeline.
func (h *DocumentHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	// Path: /api/documents/{id}/status
	path := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	id := strings.TrimSuffix(path, "/status")
	if id == "" || id == path {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	doc, err := h.documents.GetDocument(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			WriteError(w, http.StatusNotFound, "Document not found")
			return
		}
		h.logger.Error().Err(err).Str("document_id", id).Msg("Failed to load document")
		WriteError(w, http.StatusInternalServerError, "Failed to load document")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"id":         doc.ID,
		"title":      doc.Title,
		"processing": doc.Processing,
		"created_at": doc.CreatedAt,
		"updated_at": doc.UpdatedAt,
	})
}
