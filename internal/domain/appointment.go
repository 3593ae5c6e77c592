package domain

import "time"

// Appointment is a scheduled meeting between a user and one of the role parties.
type Appointment struct {
	ID             int64             `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	StartDate      *time.Time        `json:"startDate,omitempty"`
	EndDate        *time.Time        `json:"endDate,omitempty"`
	Location       string            `json:"location,omitempty"`
	TalentID       int64             `json:"talentId,omitempty"`
	ClubID         int64             `json:"clubId,omitempty"`
	AgentID        int64             `json:"agentId,omitempty"`
	DoctorID       int64             `json:"doctorId,omitempty"`
	Attendees      []int64           `json:"attendees"`
	IsVideoMeeting bool              `json:"isVideoMeeting"`
	MeetingLink    string            `json:"meetingLink,omitempty"`
	Status         AppointmentStatus `json:"status"`
	CreatedBy      int64             `json:"createdBy"`
	CreatedAt      time.Time         `json:"createdAt"`
}
