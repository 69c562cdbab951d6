// Package ws pushes analysis job progress to connected browsers so the
// UI can show upload status without polling.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/spendlens/spendlens/internal/jobs"
)

// Hub fans job updates out to every connected WebSocket client.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mu         sync.Mutex
	log        zerolog.Logger
	upgrader   websocket.Upgrader
}

// NewHub creates a hub. Call Start before broadcasting.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Start runs the hub loop in a goroutine.
func (h *Hub) Start() {
	go func() {
		for {
			select {
			case <-h.done:
				h.mu.Lock()
				for client := range h.clients {
					client.Close()
					delete(h.clients, client)
				}
				h.mu.Unlock()
				return
			case client := <-h.register:
				h.mu.Lock()
				h.clients[client] = true
				total := len(h.clients)
				h.mu.Unlock()
				h.log.Debug().Int("clients", total).Msg("WebSocket client connected")
			case client := <-h.unregister:
				h.mu.Lock()
				if _, ok := h.clients[client]; ok {
					delete(h.clients, client)
					client.Close()
				}
				total := len(h.clients)
				h.mu.Unlock()
				h.log.Debug().Int("clients", total).Msg("WebSocket client disconnected")
			case message := <-h.broadcast:
				h.mu.Lock()
				for client := range h.clients {
					if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
						h.log.Warn().Err(err).Msg("Dropping unresponsive WebSocket client")
						client.Close()
						delete(h.clients, client)
					}
				}
				h.mu.Unlock()
			}
		}
	}()
}

// Stop shuts the hub down and closes all client connections.
func (h *Hub) Stop() {
	close(h.done)
}

// BroadcastJobUpdate pushes one job status transition to all clients.
// Safe to pass directly to the queue as its status listener.
func (h *Hub) BroadcastJobUpdate(job *jobs.AnalyzeStatementJob) {
	update := map[string]interface{}{
		"type":   "job_update",
		"jobId":  job.JobID,
		"status": job.Status,
	}
	if job.SessionID != "" {
		update["sessionId"] = job.SessionID
	}
	if job.Status == jobs.JobStatusFailed && job.Error != "" {
		update["error"] = job.Error
	}

	data, err := json.Marshal(update)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal job update")
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.done:
	}
}

// HandleWebSocket upgrades the request and keeps the connection
// registered until the client goes away. Inbound messages are ignored;
// the socket is push-only.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	h.register <- conn

	go func() {
		defer func() { h.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
