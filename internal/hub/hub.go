// Package hub tracks live WebSocket connections and their identity bindings.
package hub

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/xiaot623/talentrelay/internal/domain"
)

// Connection represents a single WebSocket connection.
type Connection struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	seq uint64

	// guarded by hub.mu
	identity      domain.Identity
	sessionID     string
	sessionUserID int64
	verified      bool
	closed        bool

	writeMu sync.Mutex
}

// ConnInfo is a point-in-time copy of a connection's routing state.
type ConnInfo struct {
	ID            string
	Identity      domain.Identity
	SessionID     string
	SessionUserID int64
	Verified      bool
}

// Hub manages all WebSocket connections.
type Hub struct {
	// Connections indexed by connection ID
	connections map[string]*Connection

	// Sessions maps session_id to set of connection IDs
	sessions map[string]map[string]bool

	sendBuffer int
	nextSeq    uint64

	mu sync.RWMutex
}

// NewHub creates a new Hub whose connections buffer sendBuffer outbound frames.
func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Hub{
		connections: make(map[string]*Connection),
		sessions:    make(map[string]map[string]bool),
		sendBuffer:  sendBuffer,
	}
}

// NewConnection creates a connection with an empty identity. It is not registered yet.
func (h *Hub) NewConnection(ws *websocket.Conn) *Connection {
	return &Connection{
		ID:   uuid.New().String(),
		Conn: ws,
		Send: make(chan []byte, h.sendBuffer),
	}
}

// Register adds a connection to the registry.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	h.nextSeq++
	conn.seq = h.nextSeq
	h.connections[conn.ID] = conn
	total := len(h.connections)
	h.mu.Unlock()

	log.Debug().Str("module", "hub").Str("conn_id", conn.ID).Int("connections", total).Msg("connection registered")
}

// BindIdentity overwrites the identity of a connection. A verified connection
// keeps its authenticated user id regardless of the identity supplied.
func (h *Hub) BindIdentity(conn *Connection, identity domain.Identity) domain.Identity {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn.verified {
		identity.UserID = conn.identity.UserID
	}
	conn.identity = identity
	return identity
}

// BindVerifiedUser pins the user id of a connection to an authenticated principal.
func (h *Hub) BindVerifiedUser(conn *Connection, userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.identity.UserID = userID
	conn.verified = true
}

// SetSessionID records that the connection joined a video session as userID.
func (h *Hub) SetSessionID(conn *Connection, sessionID string, userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn.closed {
		return
	}

	// Remove from old session if any
	h.leaveSessionLocked(conn)

	conn.sessionID = sessionID
	conn.sessionUserID = userID
	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[string]bool)
	}
	h.sessions[sessionID][conn.ID] = true
}

func (h *Hub) leaveSessionLocked(conn *Connection) {
	if conn.sessionID == "" || h.sessions[conn.sessionID] == nil {
		return
	}
	delete(h.sessions[conn.sessionID], conn.ID)
	if len(h.sessions[conn.sessionID]) == 0 {
		delete(h.sessions, conn.sessionID)
	}
}

// Info returns a snapshot of the connection's routing state.
func (h *Hub) Info(conn *Connection) ConnInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return conn.infoLocked()
}

func (c *Connection) infoLocked() ConnInfo {
	return ConnInfo{
		ID:            c.ID,
		Identity:      c.identity,
		SessionID:     c.sessionID,
		SessionUserID: c.sessionUserID,
		Verified:      c.verified,
	}
}

// FindMatching returns every registered connection whose snapshot satisfies
// pred, in registration order.
func (h *Hub) FindMatching(pred func(ConnInfo) bool) []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*Connection
	for _, conn := range h.connections {
		if pred(conn.infoLocked()) {
			out = append(out, conn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// SessionPeers returns the connections bound to sessionID, in registration order.
func (h *Hub) SessionPeers(sessionID string) []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*Connection
	for connID := range h.sessions[sessionID] {
		if conn, ok := h.connections[connID]; ok {
			out = append(out, conn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Remove unregisters a connection and closes its send channel. It returns the
// final snapshot and false if the connection was already removed.
func (h *Hub) Remove(conn *Connection) (ConnInfo, bool) {
	h.mu.Lock()
	if conn.closed {
		h.mu.Unlock()
		return ConnInfo{}, false
	}
	info := conn.infoLocked()
	conn.closed = true
	delete(h.connections, conn.ID)
	h.leaveSessionLocked(conn)
	close(conn.Send)
	total := len(h.connections)
	h.mu.Unlock()

	log.Debug().Str("module", "hub").Str("conn_id", conn.ID).Str("session_id", info.SessionID).
		Int("connections", total).Msg("connection removed")
	return info, true
}

// SendToConnection queues data on a connection without blocking.
func (h *Hub) SendToConnection(conn *Connection, data []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if conn.closed {
		return ErrConnectionClosed
	}
	select {
	case conn.Send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// SendJSONToConnection sends a JSON message to a specific connection.
func (h *Hub) SendJSONToConnection(conn *Connection, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return h.SendToConnection(conn, data)
}

// BroadcastJSON sends v to every connection in conns and returns how many
// accepted it. Undeliverable connections are skipped.
func (h *Hub) BroadcastJSON(conns []*Connection, v interface{}) (int, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	delivered := 0
	for _, conn := range conns {
		if err := h.SendToConnection(conn, data); err != nil {
			log.Warn().Str("module", "hub").Str("conn_id", conn.ID).Err(err).Msg("dropping frame")
			continue
		}
		delivered++
	}
	return delivered, nil
}

// GetConnectionCount returns the number of active connections.
func (h *Hub) GetConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// GetSessionCount returns the number of video sessions with bound connections.
func (h *Hub) GetSessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// HasActiveConnections checks if a session has any active connections.
func (h *Hub) HasActiveConnections(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	connIDs, ok := h.sessions[sessionID]
	return ok && len(connIDs) > 0
}

// WriteMessage writes a message to the connection with proper locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// SetWriteDeadline sets the write deadline for the connection.
func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.Conn.SetWriteDeadline(t)
}

// SetReadDeadline sets the read deadline for the connection.
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.Conn.SetReadDeadline(t)
}

// Close closes the underlying transport.
func (c *Connection) Close() error {
	return c.Conn.Close()
}

// ErrBufferFull is returned when the send buffer is full.
var ErrBufferFull = &BufferFullError{}

// BufferFullError represents a buffer full error.
type BufferFullError struct{}

func (e *BufferFullError) Error() string {
	return "send buffer full"
}

// ErrConnectionClosed is returned when sending to a removed connection.
var ErrConnectionClosed = &ConnectionClosedError{}

// ConnectionClosedError represents a send on a removed connection.
type ConnectionClosedError struct{}

func (e *ConnectionClosedError) Error() string {
	return "connection closed"
}
