package domain

import "time"

// CreateVideoSessionRequest is the body of POST /video-sessions.
type CreateVideoSessionRequest struct {
	Title         *string    `json:"title,omitempty"`
	Description   *string    `json:"description,omitempty"`
	ScheduledFor  *time.Time `json:"scheduledFor,omitempty"`
	Attendees     []int64    `json:"attendees,omitempty"`
	AppointmentID *int64     `json:"appointmentId,omitempty"`
}

// EndVideoSessionRequest is the optional body of POST /video-sessions/:sessionId/end.
type EndVideoSessionRequest struct {
	EndTime *time.Time `json:"endTime,omitempty"`
}

// RecordingResponse is returned by the record and recording endpoints.
type RecordingResponse struct {
	SessionID    string `json:"sessionId"`
	RecordingURL string `json:"recordingUrl"`
}

// CreateAppointmentRequest is the body of POST /appointments.
type CreateAppointmentRequest struct {
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	StartDate      *time.Time        `json:"startDate,omitempty"`
	EndDate        *time.Time        `json:"endDate,omitempty"`
	Location       string            `json:"location,omitempty"`
	TalentID       int64             `json:"talentId,omitempty"`
	ClubID         int64             `json:"clubId,omitempty"`
	AgentID        int64             `json:"agentId,omitempty"`
	DoctorID       int64             `json:"doctorId,omitempty"`
	Attendees      []int64           `json:"attendees,omitempty"`
	IsVideoMeeting bool              `json:"isVideoMeeting"`
	MeetingLink    string            `json:"meetingLink,omitempty"`
	Status         AppointmentStatus `json:"status,omitempty"`
}
