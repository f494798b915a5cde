package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pingPeriod    = 25 * time.Second
	sendQueueSize = 8
)

// WSClient is one websocket subscription. All outbound traffic goes through
// the send queue; the write pump is the connection's only writer.
type WSClient struct {
	UserID uint
	conn   *websocket.Conn
	send   chan []byte
}

// writePump serializes notifications and keepalive pings onto the
// connection. It owns the write side until the send queue closes or a
// write fails, and closes the connection on the way out.
func (c *WSClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// NotificationHub pushes user-visible notifications (session expiry, new
// meal captured) to every websocket the user has open.
type NotificationHub struct {
	mu      sync.RWMutex
	clients map[uint]map[*WSClient]struct{}
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{clients: make(map[uint]map[*WSClient]struct{})}
}

// Register wraps the connection in a client with its own write pump and
// starts tracking it.
func (h *NotificationHub) Register(userID uint, conn *websocket.Conn) *WSClient {
	c := &WSClient{UserID: userID, conn: conn, send: make(chan []byte, sendQueueSize)}
	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*WSClient]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()
	go c.writePump()
	return c
}

// Unregister drops the client and closes its send queue, which ends the
// write pump. The queue closes under the same lock Broadcast reads under,
// so no send can race the close. Idempotent.
func (h *NotificationHub) Unregister(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.UserID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	close(c.send)
}

// Broadcast queues a payload for every connection the user has open. A
// client whose queue is full is skipped rather than blocking the caller.
func (h *NotificationHub) Broadcast(userID uint, payload any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// NotifySessionExpired satisfies the session manager's notifier hook.
func (h *NotificationHub) NotifySessionExpired(userID uint) {
	h.Broadcast(userID, map[string]any{
		"kind":    "session.expired",
		"message": "Your session has expired. Please sign in again.",
	})
}
