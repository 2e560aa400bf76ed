package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/corvid-labs/lectern/internal/interfaces"
	"github.com/corvid-labs/lectern/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WebSocketHandler streams ingestion lifecycle events to connected clients.
type WebSocketHandler struct {
	logger      arbor.ILogger
	clients     map[*websocket.Conn]bool
	clientMutex map[*websocket.Conn]*sync.Mutex
	mu          sync.RWMutex
}

// NewWebSocketHandler creates the handler and subscribes it to all
// ingestion event types.
func NewWebSocketHandler(eventService interfaces.EventService, logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:      logger,
		clients:     make(map[*websocket.Conn]bool),
		clientMutex: make(map[*websocket.Conn]*sync.Mutex),
	}

	for _, eventType := range []models.EventType{
		models.EventIngestionQueued,
		models.EventIngestionStarted,
		models.EventIngestionProgress,
		models.EventIngestionCompleted,
		models.EventIngestionFailed,
	} {
		eventService.Subscribe(eventType, h.handleEvent)
	}

	return h
}

// HandleWebSocket handles GET /api/events upgrade requests.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Int("clients", clientCount).Msg("WebSocket client connected")

	// Read loop: discard client messages, detect disconnect.
	go func() {
		defer h.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// handleEvent broadcasts one event to all connected clients.
func (h *WebSocketHandler) handleEvent(ctx context.Context, event models.Event) error {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		h.mu.RLock()
		mutex := h.clientMutex[conn]
		h.mu.RUnlock()
		if mutex == nil {
			continue
		}

		mutex.Lock()
		err := conn.WriteJSON(event)
		mutex.Unlock()

		if err != nil {
			h.logger.Debug().Err(err).Msg("WebSocket write failed, removing client")
			h.removeClient(conn)
		}
	}

	return nil
}

func (h *WebSocketHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
		conn.Close()
	}
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Int("clients", clientCount).Msg("WebSocket client disconnected")
}
