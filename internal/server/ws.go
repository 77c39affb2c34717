package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/keysight/internal/session"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// FeedHandler pushes every attribution to connected WebSocket clients.
type FeedHandler struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewFeedHandler creates a feed with no clients.
func NewFeedHandler() *FeedHandler {
	return &FeedHandler{clients: make(map[*websocket.Conn]bool)}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *FeedHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Record broadcasts r to every client. It implements session.Sink.
func (h *FeedHandler) Record(r session.Result) error {
	return h.Broadcast(map[string]any{
		"type":      "attribution",
		"result":    r,
		"timestamp": r.At.UnixMilli(),
	})
}

// Broadcast sends v as JSON to every client. Clients that fail to receive
// it are dropped.
func (h *FeedHandler) Broadcast(v any) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
	return nil
}
