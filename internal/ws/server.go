// Package ws relays signaling, typing and chat frames between WebSocket clients.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/xiaot623/talentrelay/internal/auth"
	"github.com/xiaot623/talentrelay/internal/config"
	"github.com/xiaot623/talentrelay/internal/hub"
	"github.com/xiaot623/talentrelay/internal/protocol"
	"github.com/xiaot623/talentrelay/internal/service"
)

// Server handles WebSocket connections.
type Server struct {
	cfg      *config.Config
	hub      *hub.Hub
	service  *service.Service
	auth     *auth.Authenticator
	upgrader websocket.Upgrader

	// Delayed auto-replies still to fire.
	pending sync.WaitGroup
	mu      sync.Mutex
	closing bool
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, h *hub.Hub, svc *service.Service, authenticator *auth.Authenticator) *Server {
	return &Server{
		cfg:     cfg,
		hub:     h,
		service: svc,
		auth:    authenticator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
// A ?token= query parameter pins the connection's user id to the token subject.
func (s *Server) HandleWebSocket(c echo.Context) error {
	var verifiedUser int64
	if token := c.QueryParam("token"); token != "" {
		p, err := s.auth.PrincipalFromToken(token)
		if err != nil {
			log.Warn().Str("module", "ws").Err(err).Msg("rejecting websocket with invalid token")
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token", "code": "unauthenticated"})
		}
		verifiedUser = p.ID
	}

	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Str("module", "ws").Err(err).Msg("failed to upgrade websocket")
		return err
	}

	conn := s.hub.NewConnection(ws)
	s.hub.Register(conn)
	if verifiedUser != 0 {
		s.hub.BindVerifiedUser(conn, verifiedUser)
	}

	ws.SetReadLimit(s.cfg.MaxMessageSize)

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

// readPump reads messages from the WebSocket connection.
func (s *Server) readPump(conn *hub.Connection) {
	defer func() {
		s.disconnect(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Warn().Str("module", "ws").Str("conn_id", conn.ID).Err(err).Msg("websocket read error")
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		s.handleMessage(conn, message)
	}
}

// writePump writes messages to the WebSocket connection.
func (s *Server) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn().Str("module", "ws").Str("conn_id", conn.ID).Err(err).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches incoming frames. A failing frame is logged and
// never tears down the connection.
func (s *Server) handleMessage(conn *hub.Connection, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "ws").Str("conn_id", conn.ID).Interface("panic", r).
				Bytes("stack", debug.Stack()).Msg("frame handler panicked")
		}
	}()

	var baseMsg protocol.BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		s.sendError(conn, protocol.ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	switch baseMsg.Type {
	case protocol.TypeAuth:
		s.handleAuth(conn, data)
	case protocol.TypeJoinSession:
		s.handleJoinSession(conn, data)
	case protocol.TypeSignal:
		s.handleSignal(conn, data)
	case protocol.TypeTyping:
		s.handleTyping(conn, data)
	case protocol.TypeMessage:
		s.handleChatMessage(conn, data)
	default:
		s.sendError(conn, protocol.ErrorCodeUnknownType, "unknown message type: "+baseMsg.Type)
	}
}

// disconnect removes the connection and tells its session peers it left.
func (s *Server) disconnect(conn *hub.Connection) {
	info, ok := s.hub.Remove(conn)
	if !ok || info.SessionID == "" {
		return
	}

	peers := s.hub.SessionPeers(info.SessionID)
	left := protocol.UserLeftMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.TypeUserLeft},
		UserID:      info.SessionUserID,
		SessionID:   info.SessionID,
	}
	if _, err := s.hub.BroadcastJSON(peers, left); err != nil {
		log.Error().Str("module", "ws").Err(err).Msg("failed to encode user-left")
	}
	log.Info().Str("module", "ws").Str("session_id", info.SessionID).Int64("user_id", info.SessionUserID).
		Int("peers", len(peers)).Msg("user left session")
}

// sendError sends an error frame to the connection.
func (s *Server) sendError(conn *hub.Connection, code, message string) {
	log.Warn().Str("module", "ws").Str("conn_id", conn.ID).Str("code", code).Msg(message)
	errMsg := protocol.ErrorMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.TypeError},
		Code:        code,
		Message:     message,
	}
	if err := s.hub.SendJSONToConnection(conn, errMsg); err != nil {
		log.Warn().Str("module", "ws").Str("conn_id", conn.ID).Err(err).Msg("failed to send error frame")
	}
}

// Shutdown stops scheduling auto-replies and waits for pending ones to fire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
