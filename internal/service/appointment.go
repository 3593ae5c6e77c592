package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xiaot623/talentrelay/internal/domain"
)

// CreateAppointment validates and stores an appointment created by the caller.
func (s *Service) CreateAppointment(ctx context.Context, p *domain.Principal, req domain.CreateAppointmentRequest) (*domain.Appointment, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ValidationErrorf("title is required")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, domain.ValidationErrorf("endDate must not be before startDate")
	}
	status := req.Status
	if status == "" {
		status = domain.AppointmentStatusPending
	}
	if !status.Valid() {
		return nil, domain.ValidationErrorf("unknown appointment status %q", status)
	}
	for _, id := range req.Attendees {
		if id <= 0 {
			return nil, domain.ValidationErrorf("attendee ids must be positive, got %d", id)
		}
	}

	ap := &domain.Appointment{
		Title:          title,
		Description:    req.Description,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Location:       req.Location,
		TalentID:       req.TalentID,
		ClubID:         req.ClubID,
		AgentID:        req.AgentID,
		DoctorID:       req.DoctorID,
		Attendees:      domain.ParticipantSet(req.Attendees...),
		IsVideoMeeting: req.IsVideoMeeting,
		MeetingLink:    req.MeetingLink,
		Status:         status,
		CreatedBy:      p.ID,
		CreatedAt:      s.now(),
	}
	if err := s.store.CreateAppointment(ctx, ap); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	return ap, nil
}

// GetAppointment returns an appointment by id.
func (s *Service) GetAppointment(ctx context.Context, p *domain.Principal, id int64) (*domain.Appointment, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	ap, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	if ap == nil {
		return nil, domain.ErrAppointmentNotFound
	}
	return ap, nil
}
