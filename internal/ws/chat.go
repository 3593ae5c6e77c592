package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xiaot623/talentrelay/internal/domain"
	"github.com/xiaot623/talentrelay/internal/hub"
	"github.com/xiaot623/talentrelay/internal/protocol"
)

const persistTimeout = 5 * time.Second

// handleChatMessage persists a chat line, echoes it to every connection of the
// conversation and schedules the club's auto-reply.
func (s *Server) handleChatMessage(conn *hub.Connection, data []byte) {
	var msg protocol.ChatInMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, protocol.ErrorCodeInvalidMessage, "invalid chat message")
		return
	}

	identity := s.hub.Info(conn).Identity

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	saved, err := s.service.PostChatMessage(ctx, identity, msg.Content)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			s.sendError(conn, protocol.ErrorCodeInvalidMessage, err.Error())
			return
		}
		log.Error().Str("module", "ws").Str("conn_id", conn.ID).Err(err).Msg("failed to persist chat message")
		s.sendError(conn, protocol.ErrorCodePersistFailed, "message could not be saved")
		return
	}

	sent, err := s.hub.BroadcastJSON(s.chatAudience(conn.ID, identity), userChatFrame(saved))
	if err != nil {
		log.Error().Str("module", "ws").Err(err).Msg("failed to encode chat message")
	}
	log.Debug().Str("module", "ws").Int64("message_id", saved.ID).Int("recipients", sent).Msg("chat message relayed")

	s.scheduleAutoReply(conn.ID, identity)
}

// scheduleAutoReply posts the canned club reply after the configured delay
// without blocking the read loop.
func (s *Server) scheduleAutoReply(connID string, identity domain.Identity) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return
	}
	s.pending.Add(1)
	s.mu.Unlock()

	time.AfterFunc(s.cfg.AutoReplyDelay, func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		reply, err := s.service.PostAutoReply(ctx, identity)
		if err != nil {
			log.Error().Str("module", "ws").Err(err).Msg("failed to persist auto-reply")
			return
		}

		// Audience is recomputed: connections may have come or gone meanwhile.
		if _, err := s.hub.BroadcastJSON(s.chatAudience(connID, identity), replyChatFrame(reply)); err != nil {
			log.Error().Str("module", "ws").Err(err).Msg("failed to encode auto-reply")
		}
	})
}

// chatAudience returns the sender's connection plus every connection sharing
// a non-zero identity field with it.
func (s *Server) chatAudience(senderConnID string, identity domain.Identity) []*hub.Connection {
	return s.hub.FindMatching(func(ci hub.ConnInfo) bool {
		return ci.ID == senderConnID || ci.Identity.Intersects(identity)
	})
}

func userChatFrame(m *domain.ChatMessage) protocol.ChatOutMessage {
	identity := m.Identity()
	name := "Guest"
	if identity.UserID != 0 {
		name = fmt.Sprintf("User %d", identity.UserID)
	}
	return protocol.ChatOutMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.TypeMessage},
		ID:          m.ID,
		SenderID:    identity.UserID,
		ReceiverID:  identity.CounterpartID(),
		Content:     m.Message,
		Timestamp:   m.Timestamp.UnixMilli(),
		Sender:      protocol.MessageSender{ID: identity.UserID, Name: name, Role: "user"},
	}
}

func replyChatFrame(m *domain.ChatMessage) protocol.ChatOutMessage {
	identity := m.Identity()
	clubID := identity.CounterpartID()
	return protocol.ChatOutMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.TypeMessage},
		ID:          m.ID,
		SenderID:    clubID,
		ReceiverID:  identity.UserID,
		Content:     m.Message,
		Timestamp:   m.Timestamp.UnixMilli(),
		Sender:      protocol.MessageSender{ID: clubID, Name: "Club", Role: "club"},
	}
}
