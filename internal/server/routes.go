package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route (ingestion event stream)
	mux.HandleFunc("/api/events", s.app.WSHandler.HandleWebSocket)

	// API routes - Documents
	mux.HandleFunc("/api/documents", s.app.DocumentHandler.UploadHandler) // POST - upload and queue for ingestion
	mux.HandleFunc("/api/documents/", s.handleDocumentRoutes)             // GET /{id}/status

	// API routes - Query
	mux.HandleFunc("/api/query", s.app.QueryHandler.QueryHandler) // POST - RAG query

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleDocumentRoutes routes /api/documents/{id}/... requests
func (s *Server) handleDocumentRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	// GET /api/documents/{id}/status
	if r.Method == "GET" && strings.HasSuffix(path, "/status") {
		s.app.DocumentHandler.StatusHandler(w, r)
		return
	}

	s.app.APIHandler.NotFoundHandler(w, r)
}
