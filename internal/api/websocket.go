package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/amterp/postdeck/internal/session"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Local tool; the session cookie already scopes what a client sees
	},
}

// WebSocketHub fans session events out to the browser tabs of that session.
type WebSocketHub struct {
	logger zerolog.Logger

	mu      sync.RWMutex
	clients map[*WebSocketClient]bool
}

// WebSocketClient represents a connected WebSocket client.
type WebSocketClient struct {
	hub       *WebSocketHub
	conn      *websocket.Conn
	sessionID string
	send      chan []byte
}

// WebSocketMessage is the JSON message sent to clients.
type WebSocketMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// NewWebSocketHub creates a new WebSocket hub.
func NewWebSocketHub(logger zerolog.Logger) *WebSocketHub {
	return &WebSocketHub{
		logger:  logger,
		clients: make(map[*WebSocketClient]bool),
	}
}

// Notify sends a session event to every client of that session.
// It matches session.ManagerOptions.Notify.
func (h *WebSocketHub) Notify(sessionID string, ev session.Event) {
	data, err := json.Marshal(WebSocketMessage{Type: string(ev)})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal session event")
		return
	}
	h.sendTo(func(c *WebSocketClient) bool { return c.sessionID == sessionID }, data)
}

// OnFileChange implements FileWatcherSubscriber.
func (h *WebSocketHub) OnFileChange(change FileChange) {
	data, err := json.Marshal(WebSocketMessage{Type: "seed_changed", Data: change})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal file change")
		return
	}
	h.broadcast(data)
}

// broadcast sends a message to all connected clients.
func (h *WebSocketHub) broadcast(data []byte) {
	h.sendTo(func(*WebSocketClient) bool { return true }, data)
}

func (h *WebSocketHub) sendTo(match func(*WebSocketClient) bool, data []byte) {
	h.mu.RLock()
	clients := make([]*WebSocketClient, 0, len(h.clients))
	for client := range h.clients {
		if match(client) {
			clients = append(clients, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.trySend(client, data)
	}
}

// trySend attempts to send data to a client, handling the case where
// the client's channel was closed between snapshot and send.
func (h *WebSocketHub) trySend(client *WebSocketClient, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed by removeClient - client already cleaned up
		}
	}()

	select {
	case client.send <- data:
	default:
		// Client buffer full, close it
		h.removeClient(client)
	}
}

func (h *WebSocketHub) addClient(client *WebSocketClient) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
}

func (h *WebSocketHub) removeClient(client *WebSocketClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
}

// ServeWS upgrades the request and registers the connection under sessionID.
func (h *WebSocketHub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &WebSocketClient{
		hub:       h,
		conn:      conn,
		sessionID: sessionID,
		send:      make(chan []byte, 64),
	}

	h.addClient(client)

	go client.writePump()
	go client.readPump()

	welcome := WebSocketMessage{Type: "connected"}
	if data, err := json.Marshal(welcome); err == nil {
		h.trySend(client, data)
	}
}

// readPump reads messages from the WebSocket connection.
// Clients never send anything; reading detects disconnects.
func (c *WebSocketClient) readPump() {
	defer c.hub.removeClient(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug().Err(err).Str("session", c.sessionID).Msg("websocket read error")
			}
			return
		}
	}
}

// writePump writes messages to the WebSocket connection.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// One frame per message so the page can parse each as JSON.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SessionClientCount returns the number of clients connected for sessionID.
func (h *WebSocketHub) SessionClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for c := range h.clients {
		if c.sessionID == sessionID {
			n++
		}
	}
	return n
}

// CloseAll disconnects every client.
func (h *WebSocketHub) CloseAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*WebSocketClient]bool)
	h.mu.Unlock()

	for c := range clients {
		close(c.send)
	}
}
