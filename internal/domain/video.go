package domain

import (
	"sort"
	"time"
)

// VideoSession is a scheduled, active or completed video meeting.
type VideoSession struct {
	ID              int64         `json:"id"`
	SessionID       string        `json:"sessionId"`
	HostID          int64         `json:"hostId"`
	Title           string        `json:"title"`
	Description     string        `json:"description,omitempty"`
	AppointmentID   *int64        `json:"appointmentId"`
	Participants    []int64       `json:"participants"`
	Status          SessionStatus `json:"status"`
	StartTime       time.Time     `json:"startTime"`
	ActualStartTime *time.Time    `json:"actualStartTime"`
	ActualEndTime   *time.Time    `json:"actualEndTime"`
	RecordingURL    string        `json:"recordingUrl,omitempty"`
	MeetingLink     string        `json:"meetingLink,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// IsHost reports whether userID created the session.
func (s *VideoSession) IsHost(userID int64) bool {
	return userID != 0 && s.HostID == userID
}

// HasParticipant reports membership. The host is always a member.
func (s *VideoSession) HasParticipant(userID int64) bool {
	if s.IsHost(userID) {
		return true
	}
	for _, id := range s.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// JoinResult is returned by a join.
type JoinResult struct {
	Session  *VideoSession `json:"session"`
	UserRole SessionRole   `json:"userRole"`
}

// ParticipantSet returns ids de-duplicated and sorted, dropping zeros.
func ParticipantSet(ids ...int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
