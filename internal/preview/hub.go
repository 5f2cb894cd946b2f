package preview

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// MessageType is the type of a message pushed to browsers.
type MessageType string

const (
	MessageSnapshot MessageType = "snapshot"
	MessageError    MessageType = "error"
)

// Message is sent to browsers over the websocket.
type Message struct {
	Type    MessageType `json:"type"`
	HTML    string      `json:"html,omitempty"`
	Version uint64      `json:"version,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Hub manages the websocket connections of preview clients. Incoming
// messages go to OnMessage; a returned error is sent back to that client
// only.
type Hub struct {
	// OnConnect returns the message a client receives when it connects.
	OnConnect func() Message

	// OnMessage handles a message from a client.
	OnMessage func(data []byte) error

	// OnCountChange is called with +1 or -1 as clients come and go.
	OnCountChange func(delta int)

	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	writeMu  sync.Mutex
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// HandleWebSocket upgrades the request and serves the connection until the
// client goes away.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.logger.Debug("preview: websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	h.countChanged(1)

	if h.OnConnect != nil {
		h.send(conn, h.OnConnect())
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if h.OnMessage == nil {
			continue
		}
		if err := h.OnMessage(data); err != nil {
			h.send(conn, Message{Type: MessageError, Error: err.Error()})
		}
	}

	h.remove(conn)
}

// Broadcast sends msg to every connected client.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := h.write(client, data); err != nil {
			h.remove(client)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*websocket.Conn]bool)
	h.mu.Unlock()

	for client := range clients {
		client.Close()
		h.countChanged(-1)
	}
}

func (h *Hub) send(conn *websocket.Conn, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := h.write(conn, data); err != nil {
		h.remove(conn)
	}
}

// write serializes writes; a gorilla connection allows one writer at a time.
func (h *Hub) write(conn *websocket.Conn, data []byte) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()

	if ok {
		conn.Close()
		h.countChanged(-1)
	}
}

func (h *Hub) countChanged(delta int) {
	if h.OnCountChange != nil {
		h.OnCountChange(delta)
	}
}
