// Package store defines the storage interface and its SQLite implementation.
package store

import (
	"context"
	"time"

	"github.com/xiaot623/talentrelay/internal/domain"
)

// Store defines the interface for data persistence.
// Lookups return (nil, nil) when the row does not exist.
type Store interface {
	// Video session operations
	CreateVideoSession(ctx context.Context, session *domain.VideoSession) error
	GetVideoSession(ctx context.Context, id int64) (*domain.VideoSession, error)
	GetVideoSessionBySessionID(ctx context.Context, sessionID string) (*domain.VideoSession, error)
	GetVideoSessions(ctx context.Context) ([]domain.VideoSession, error)
	UpdateVideoSessionStatus(ctx context.Context, id int64, status domain.SessionStatus, at time.Time) (*domain.VideoSession, error)
	UpdateVideoSessionParticipants(ctx context.Context, id int64, participants []int64) (*domain.VideoSession, error)
	AddVideoSessionParticipant(ctx context.Context, id int64, userID int64) (bool, error)
	UpdateVideoSessionRecording(ctx context.Context, id int64, url string) (*domain.VideoSession, error)
	IsSessionHost(ctx context.Context, id int64, userID int64) (bool, error)
	IsSessionAttendee(ctx context.Context, id int64, userID int64) (bool, error)

	// Chat operations
	CreateChatMessage(ctx context.Context, message *domain.ChatMessage) error
	GetChatMessages(ctx context.Context, userID int64) ([]domain.ChatMessage, error)

	// Appointment operations
	CreateAppointment(ctx context.Context, appointment *domain.Appointment) error
	GetAppointment(ctx context.Context, id int64) (*domain.Appointment, error)

	// Lifecycle
	Close() error
}
