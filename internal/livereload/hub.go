// Package livereload tells open browser tabs to refresh when view files
// change in development.
package livereload

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"nhooyr.io/websocket"
)

const EventReload = "reload"

type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	logger  *log.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{clients: make(map[*client]bool), logger: logger}
}

// Broadcast queues the event for every client. Slow clients miss it.
func (h *Hub) Broadcast(event string, data any) {
	msg, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Reload asks every tab to revisit its page.
func (h *Hub) Reload(path string) {
	h.Broadcast(EventReload, map[string]string{"path": path})
}

func (h *Hub) addClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 8)}
	h.addClient(c)
	h.logger.Debug("livereload client connected")

	ctx := r.Context()
	go func() {
		defer conn.Close(websocket.StatusNormalClosure, "")
		for msg := range c.send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}
	h.removeClient(c)
	h.logger.Debug("livereload client disconnected")
}
