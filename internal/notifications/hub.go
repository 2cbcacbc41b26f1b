// Package notifications fans notification events out to a user's open
// websocket connections.
package notifications

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/campusfix/campusfix/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 << 10

	defaultBufferSize = 32
)

// Hub event names.
const (
	EventCreated = "notification.created"
	EventRead    = "notification.read"
	EventReadAll = "notification.read_all"
)

// Message is the JSON frame delivered to subscribers.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Hub tracks live connections per user.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*connection]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     sameOriginOrLoopback,
		},
		log: logger.WithModule("notifications"),
	}
}

// Serve upgrades the request and streams userID's notifications until the
// client disconnects.
func (h *Hub) Serve(userID string, w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &connection{
		hub:    h,
		socket: socket,
		userID: userID,
		send:   make(chan Message, defaultBufferSize),
	}
	h.register(client)

	go client.writeLoop()
	client.readLoop()
}

// Publish delivers message to every connection userID has open.
func (h *Hub) Publish(userID string, message Message) {
	if h == nil || userID == "" {
		return
	}

	h.mu.RLock()
	targets := make([]*connection, 0, len(h.clients[userID]))
	for client := range h.clients[userID] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		client.enqueue(message)
	}
}

// Connections reports how many sockets userID has open.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) register(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[client.userID] == nil {
		h.clients[client.userID] = make(map[*connection]struct{})
	}
	h.clients[client.userID][client] = struct{}{}
}

func (h *Hub) unregister(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.clients[client.userID]
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}
}

type connection struct {
	hub    *Hub
	socket *websocket.Conn
	userID string

	mu     sync.Mutex
	closed bool
	send   chan Message
}

func (c *connection) enqueue(message Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- message:
	default:
		c.hub.log.Warn("dropping slow notification subscriber", zap.String("user_id", c.userID))
		c.closeLocked()
	}
}

// readLoop only services control frames; clients never send data.
func (c *connection) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("notification socket closed", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
	}
}

func (c *connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *connection) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	c.hub.unregister(c)
	close(c.send)
}

func sameOriginOrLoopback(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	originHost := stripPort(parsed.Host)
	if strings.EqualFold(originHost, stripPort(r.Host)) {
		return true
	}
	if strings.EqualFold(originHost, "localhost") {
		return true
	}
	ip := net.ParseIP(originHost)
	return ip != nil && ip.IsLoopback()
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
