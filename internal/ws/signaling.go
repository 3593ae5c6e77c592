package ws

import (
	"encoding/json"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/xiaot623/talentrelay/internal/domain"
	"github.com/xiaot623/talentrelay/internal/hub"
	"github.com/xiaot623/talentrelay/internal/protocol"
)

// handleAuth binds the asserted identity to the connection.
func (s *Server) handleAuth(conn *hub.Connection, data []byte) {
	var msg protocol.AuthMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, protocol.ErrorCodeInvalidMessage, "invalid auth message")
		return
	}

	bound := s.hub.BindIdentity(conn, domain.Identity{
		UserID:   msg.UserID,
		TalentID: msg.TalentID,
		ClubID:   msg.ClubID,
		AgentID:  msg.AgentID,
		DoctorID: msg.DoctorID,
	})
	info := s.hub.Info(conn)

	log.Info().Str("module", "ws").Str("conn_id", conn.ID).Int64("user_id", bound.UserID).
		Bool("verified", info.Verified).Msg("connection identified")

	if err := s.hub.SendJSONToConnection(conn, protocol.AuthOKMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.TypeAuthOK},
		UserID:      bound.UserID,
		TalentID:    bound.TalentID,
		ClubID:      bound.ClubID,
		AgentID:     bound.AgentID,
		DoctorID:    bound.DoctorID,
		Verified:    info.Verified,
	}); err != nil {
		log.Warn().Str("module", "ws").Str("conn_id", conn.ID).Err(err).Msg("failed to send auth-ok")
	}
}

// handleJoinSession tags the connection with a session, announces it to the
// peers already there and replies with the list of those peers.
func (s *Server) handleJoinSession(conn *hub.Connection, data []byte) {
	var msg protocol.JoinSessionMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.SessionID == "" {
		s.sendError(conn, protocol.ErrorCodeInvalidMessage, "join-session requires sessionId")
		return
	}

	userID := s.senderUserID(conn, msg.UserID)
	s.hub.SetSessionID(conn, msg.SessionID, userID)

	others := otherConnections(s.hub.SessionPeers(msg.SessionID), conn)
	joined := protocol.UserJoinedMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.TypeUserJoined},
		UserID:      userID,
		SessionID:   msg.SessionID,
	}
	if _, err := s.hub.BroadcastJSON(others, joined); err != nil {
		log.Error().Str("module", "ws").Err(err).Msg("failed to encode user-joined")
	}

	seen := map[int64]bool{userID: true, 0: true}
	users := []int64{}
	for _, peer := range others {
		id := s.hub.Info(peer).SessionUserID
		if seen[id] {
			continue
		}
		seen[id] = true
		users = append(users, id)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	if err := s.hub.SendJSONToConnection(conn, protocol.SessionUsersMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.TypeSessionUsers},
		Users:       users,
		SessionID:   msg.SessionID,
	}); err != nil {
		log.Warn().Str("module", "ws").Str("conn_id", conn.ID).Err(err).Msg("failed to send session-users")
	}

	log.Info().Str("module", "ws").Str("session_id", msg.SessionID).Int64("user_id", userID).
		Int("peers", len(others)).Msg("user joined session")
}

// handleSignal forwards the payload to the receiver's connection in the same
// session. Unknown receivers are dropped silently.
func (s *Server) handleSignal(conn *hub.Connection, data []byte) {
	var msg protocol.SignalMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.SessionID == "" || msg.ReceiverID == 0 {
		s.sendError(conn, protocol.ErrorCodeInvalidMessage, "signal requires sessionId and receiverId")
		return
	}

	var target *hub.Connection
	for _, peer := range s.hub.SessionPeers(msg.SessionID) {
		if peer == conn {
			continue
		}
		if sessionUser(s.hub.Info(peer)) == msg.ReceiverID {
			target = peer
			break
		}
	}
	if target == nil {
		log.Debug().Str("module", "ws").Str("session_id", msg.SessionID).Int64("receiver_id", msg.ReceiverID).
			Msg("signal receiver not connected, dropping")
		return
	}

	out := protocol.SignalMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.TypeSignal},
		UserID:      s.senderUserID(conn, msg.UserID),
		Signal:      msg.Signal,
		SessionID:   msg.SessionID,
	}
	if err := s.hub.SendJSONToConnection(target, out); err != nil {
		log.Warn().Str("module", "ws").Str("conn_id", target.ID).Err(err).Msg("failed to forward signal")
	}
}

// handleTyping forwards the indicator to every connection holding the
// receiver id in one of its role slots. A verified sender id is pinned.
func (s *Server) handleTyping(conn *hub.Connection, data []byte) {
	var msg protocol.TypingMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.ReceiverID == 0 {
		s.sendError(conn, protocol.ErrorCodeInvalidMessage, "typing requires receiverId")
		return
	}

	targets := s.hub.FindMatching(func(ci hub.ConnInfo) bool {
		return ci.Identity.HasRoleID(msg.ReceiverID)
	})
	msg.Type = protocol.TypeTyping
	msg.SenderID = s.senderUserID(conn, msg.SenderID)
	if _, err := s.hub.BroadcastJSON(targets, msg); err != nil {
		log.Error().Str("module", "ws").Err(err).Msg("failed to encode typing")
	}
}

// senderUserID prefers a token-verified user id over the one in the frame.
func (s *Server) senderUserID(conn *hub.Connection, asserted int64) int64 {
	info := s.hub.Info(conn)
	if info.Verified || asserted == 0 {
		return info.Identity.UserID
	}
	return asserted
}

func sessionUser(ci hub.ConnInfo) int64 {
	if ci.SessionUserID != 0 {
		return ci.SessionUserID
	}
	return ci.Identity.UserID
}

func otherConnections(conns []*hub.Connection, self *hub.Connection) []*hub.Connection {
	out := make([]*hub.Connection, 0, len(conns))
	for _, c := range conns {
		if c != self {
			out = append(out, c)
		}
	}
	return out
}
