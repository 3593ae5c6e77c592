package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xiaot623/talentrelay/internal/domain"
)

const maxChatMessageRunes = 4000

// PostChatMessage persists a message written by the connection's user.
func (s *Service) PostChatMessage(ctx context.Context, identity domain.Identity, content string) (*domain.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ValidationErrorf("message content is required")
	}
	if utf8.RuneCountInString(content) > maxChatMessageRunes {
		return nil, domain.ValidationErrorf("message exceeds %d characters", maxChatMessageRunes)
	}
	return s.saveChatMessage(ctx, identity, content, true)
}

// PostAutoReply persists the canned reply sent on behalf of the club.
func (s *Service) PostAutoReply(ctx context.Context, identity domain.Identity) (*domain.ChatMessage, error) {
	return s.saveChatMessage(ctx, identity, s.config.AutoReplyText, false)
}

func (s *Service) saveChatMessage(ctx context.Context, identity domain.Identity, content string, fromUser bool) (*domain.ChatMessage, error) {
	msg := &domain.ChatMessage{
		UserID:     identity.UserID,
		TalentID:   identity.TalentID,
		ClubID:     identity.ClubID,
		AgentID:    identity.AgentID,
		DoctorID:   identity.DoctorID,
		Message:    content,
		IsFromUser: fromUser,
		Timestamp:  s.now(),
	}
	if err := s.store.CreateChatMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save chat message: %w", err)
	}
	return msg, nil
}

// ListChatMessages returns the caller's chat history, oldest first.
func (s *Service) ListChatMessages(ctx context.Context, p *domain.Principal) ([]domain.ChatMessage, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	messages, err := s.store.GetChatMessages(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat messages: %w", err)
	}
	return messages, nil
}
