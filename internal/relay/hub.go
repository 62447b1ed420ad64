// Package relay delivers chat messages to live WebSocket connections. The
// Hub maps a user identity to its set of active connections; one user may
// hold several (tabs, devices) and all are addressed together.
package relay

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Conn is a single live connection's presence in the hub. OutChan is drained
// by the connection's write pump. The closed flag is checked under mu on
// every write: Broadcast releases the hub lock before writing, so a
// concurrent Unregister must not leave a send racing a close.
type Conn struct {
	UserID  uuid.UUID
	Cancel  func()
	OutChan chan map[string]interface{}

	mu     sync.Mutex
	closed bool
}

// NewConn builds a connection handle with a buffered outbound channel.
func NewConn(userID uuid.UUID, cancel func()) *Conn {
	return &Conn{
		UserID:  userID,
		Cancel:  cancel,
		OutChan: make(chan map[string]interface{}, 16),
	}
}

// Write pushes a payload onto the connection's OutChan non-blockingly.
// Payloads for a closed or full channel are dropped with a log line.
func (c *Conn) Write(msg map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		msgType, _ := msg["type"].(string)
		log.Printf("relay: conn for user %s closed, dropped message type '%s'", c.UserID, msgType)
		return
	}
	select {
	case c.OutChan <- msg:
	default:
		msgType, _ := msg["type"].(string)
		log.Printf("relay: OutChan for user %s full, dropped message type '%s'", c.UserID, msgType)
	}
}

// closeChan closes OutChan exactly once.
func (c *Conn) closeChan() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.OutChan)
}

// WriteError sends an error event to this connection only.
func (c *Conn) WriteError(msg string) {
	c.Write(map[string]interface{}{
		"type":    "error",
		"message": msg,
	})
}

// Hub is the connection registry. Register and Unregister are the only
// mutators; broadcasts to an identity with zero connections are dropped.
type Hub struct {
	mu    sync.Mutex
	conns map[uuid.UUID]map[*Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[uuid.UUID]map[*Conn]struct{})}
}

func (h *Hub) Register(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[conn.UserID]
	if !ok {
		set = make(map[*Conn]struct{})
		h.conns[conn.UserID] = set
	}
	set[conn] = struct{}{}
}

// Unregister removes the connection, closes its OutChan, and cancels its
// context. Safe to call for a connection that was never registered.
func (h *Hub) Unregister(conn *Conn) {
	h.mu.Lock()
	set, ok := h.conns[conn.UserID]
	if ok {
		if _, present := set[conn]; !present {
			ok = false
		}
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, conn.UserID)
		}
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	conn.closeChan()
	if conn.Cancel != nil {
		conn.Cancel()
	}
}

// Broadcast writes the payload to every active connection of userID.
// Returns the number of connections addressed.
func (h *Hub) Broadcast(userID uuid.UUID, msg map[string]interface{}) int {
	h.mu.Lock()
	targets := make([]*Conn, 0, len(h.conns[userID]))
	for conn := range h.conns[userID] {
		targets = append(targets, conn)
	}
	h.mu.Unlock()

	for _, conn := range targets {
		conn.Write(msg)
	}
	return len(targets)
}

// Count reports the number of active connections for a user.
func (h *Hub) Count(userID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[userID])
}
