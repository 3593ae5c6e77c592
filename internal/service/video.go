package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/xiaot623/talentrelay/internal/domain"
	"github.com/xiaot623/talentrelay/policy"
)

const defaultTitlePrefix = "Session "

// CreateVideoSession schedules a new session hosted by the caller.
func (s *Service) CreateVideoSession(ctx context.Context, p *domain.Principal, req domain.CreateVideoSessionRequest) (*domain.VideoSession, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	for _, id := range req.Attendees {
		if id <= 0 {
			return nil, domain.ValidationErrorf("attendee ids must be positive, got %d", id)
		}
	}
	if req.AppointmentID != nil {
		ap, err := s.store.GetAppointment(ctx, *req.AppointmentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get appointment: %w", err)
		}
		if ap == nil {
			return nil, domain.ValidationErrorf("appointment %d does not exist", *req.AppointmentID)
		}
	}

	now := s.now()
	token := s.newToken()
	vs := &domain.VideoSession{
		SessionID:     token,
		HostID:        p.ID,
		Title:         defaultTitle(token),
		AppointmentID: req.AppointmentID,
		Participants:  domain.ParticipantSet(append([]int64{p.ID}, req.Attendees...)...),
		Status:        domain.SessionStatusScheduled,
		StartTime:     now,
		CreatedAt:     now,
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		vs.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		vs.Description = *req.Description
	}
	if req.ScheduledFor != nil {
		vs.StartTime = req.ScheduledFor.UTC()
	}

	if err := s.store.CreateVideoSession(ctx, vs); err != nil {
		return nil, fmt.Errorf("failed to create video session: %w", err)
	}

	log.Info().Str("module", "service").Str("session_id", vs.SessionID).Int64("host_id", vs.HostID).
		Int("participants", len(vs.Participants)).Msg("video session created")
	return s.decorate(vs), nil
}

func defaultTitle(token string) string {
	if len(token) > 8 {
		token = token[:8]
	}
	return defaultTitlePrefix + token
}

// ListVideoSessions returns the sessions the caller hosts or participates in.
func (s *Service) ListVideoSessions(ctx context.Context, p *domain.Principal) ([]domain.VideoSession, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	all, err := s.store.GetVideoSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list video sessions: %w", err)
	}

	out := []domain.VideoSession{}
	for i := range all {
		if all[i].HasParticipant(p.ID) {
			out = append(out, *s.decorate(&all[i]))
		}
	}
	return out, nil
}

// JoinVideoSession adds the caller to the participant set if absent.
func (s *Service) JoinVideoSession(ctx context.Context, p *domain.Principal, ref string) (*domain.JoinResult, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	vs, err := s.resolveSession(ctx, ref)
	if err != nil {
		return nil, err
	}

	if !vs.HasParticipant(p.ID) {
		if _, err := s.store.AddVideoSessionParticipant(ctx, vs.ID, p.ID); err != nil {
			return nil, fmt.Errorf("failed to add participant: %w", err)
		}
		if vs, err = s.store.GetVideoSession(ctx, vs.ID); err != nil {
			return nil, fmt.Errorf("failed to get video session: %w", err)
		}
		if vs == nil {
			return nil, domain.ErrSessionNotFound
		}
		log.Info().Str("module", "service").Str("session_id", vs.SessionID).Int64("user_id", p.ID).Msg("participant joined")
	}

	role := domain.SessionRoleAttendee
	if vs.IsHost(p.ID) {
		role = domain.SessionRoleHost
	}
	return &domain.JoinResult{Session: s.decorate(vs), UserRole: role}, nil
}

// StartVideoSession moves a session to active. The actual start time is only
// stamped the first time.
func (s *Service) StartVideoSession(ctx context.Context, p *domain.Principal, ref string) (*domain.VideoSession, error) {
	vs, err := s.authorizedSession(ctx, p, ref, domain.ActionStart)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(vs.Status, domain.SessionStatusActive) {
		return nil, domain.ErrSessionCompleted
	}

	updated, err := s.store.UpdateVideoSessionStatus(ctx, vs.ID, domain.SessionStatusActive, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to start video session: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrSessionNotFound
	}
	if updated.Status != domain.SessionStatusActive {
		// Ended concurrently.
		return nil, domain.ErrSessionCompleted
	}

	log.Info().Str("module", "service").Str("session_id", updated.SessionID).Msg("video session started")
	return s.decorate(updated), nil
}

// EndVideoSession completes a session. The end time is overwritten on every call.
func (s *Service) EndVideoSession(ctx context.Context, p *domain.Principal, ref string, req domain.EndVideoSessionRequest) (*domain.VideoSession, error) {
	vs, err := s.authorizedSession(ctx, p, ref, domain.ActionEnd)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(vs.Status, domain.SessionStatusCompleted) {
		return nil, domain.ValidationErrorf("cannot end a session in status %q", vs.Status)
	}

	at := s.now()
	if req.EndTime != nil {
		at = req.EndTime.UTC()
	}
	updated, err := s.store.UpdateVideoSessionStatus(ctx, vs.ID, domain.SessionStatusCompleted, at)
	if err != nil {
		return nil, fmt.Errorf("failed to end video session: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrSessionNotFound
	}

	log.Info().Str("module", "service").Str("session_id", updated.SessionID).Time("ended_at", at).Msg("video session ended")
	return s.decorate(updated), nil
}

// RecordVideoSession attaches a recording URL to the session.
func (s *Service) RecordVideoSession(ctx context.Context, p *domain.Principal, ref string) (*domain.RecordingResponse, error) {
	vs, err := s.authorizedSession(ctx, p, ref, domain.ActionRecord)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/video-sessions/%d/recording.mp4", strings.TrimRight(s.config.RecordingBaseURL, "/"), vs.ID)
	updated, err := s.store.UpdateVideoSessionRecording(ctx, vs.ID, url)
	if err != nil {
		return nil, fmt.Errorf("failed to store recording: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrSessionNotFound
	}
	return &domain.RecordingResponse{SessionID: updated.SessionID, RecordingURL: updated.RecordingURL}, nil
}

// GetRecording returns the recording URL. Participants may read it too.
func (s *Service) GetRecording(ctx context.Context, p *domain.Principal, ref string) (*domain.RecordingResponse, error) {
	vs, err := s.authorizedSession(ctx, p, ref, domain.ActionViewRecording)
	if err != nil {
		return nil, err
	}
	if vs.RecordingURL == "" {
		return nil, domain.ErrRecordingNotFound
	}
	return &domain.RecordingResponse{SessionID: vs.SessionID, RecordingURL: vs.RecordingURL}, nil
}

// resolveSession looks ref up as an internal id when it is numeric and as a
// session token otherwise.
func (s *Service) resolveSession(ctx context.Context, ref string) (*domain.VideoSession, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.ErrSessionNotFound
	}

	var vs *domain.VideoSession
	var err error
	if id, perr := strconv.ParseInt(ref, 10, 64); perr == nil {
		vs, err = s.store.GetVideoSession(ctx, id)
	} else {
		vs, err = s.store.GetVideoSessionBySessionID(ctx, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video session: %w", err)
	}
	if vs == nil {
		return nil, domain.ErrSessionNotFound
	}
	return vs, nil
}

func (s *Service) authorizedSession(ctx context.Context, p *domain.Principal, ref string, action string) (*domain.VideoSession, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	vs, err := s.resolveSession(ctx, ref)
	if err != nil {
		return nil, err
	}

	isHost, err := s.store.IsSessionHost(ctx, vs.ID, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check host: %w", err)
	}
	isAttendee, err := s.store.IsSessionAttendee(ctx, vs.ID, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check attendee: %w", err)
	}

	allowed, err := s.policyEngine.Allowed(ctx, policy.AccessInput{
		Action:        action,
		UserID:        p.ID,
		IsAdmin:       p.IsAdmin(s.config.AdminRole),
		IsHost:        isHost,
		IsParticipant: isAttendee,
	})
	if err != nil {
		return nil, fmt.Errorf("policy evaluation failed: %w", err)
	}
	if !allowed {
		log.Info().Str("module", "service").Str("session_id", vs.SessionID).Int64("user_id", p.ID).
			Str("action", action).Msg("access denied")
		return nil, fmt.Errorf("%w: %s is not permitted for user %d", domain.ErrForbidden, action, p.ID)
	}
	return vs, nil
}

func (s *Service) decorate(vs *domain.VideoSession) *domain.VideoSession {
	vs.MeetingLink = "/video-sessions/" + vs.SessionID
	if vs.Participants == nil {
		vs.Participants = []int64{}
	}
	return vs
}
