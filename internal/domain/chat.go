package domain

import "time"

// ChatMessage is a persisted chat line. The conversation is identified by the
// set of non-zero role ids, there is no thread id.
type ChatMessage struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	TalentID   int64     `json:"talentId,omitempty"`
	ClubID     int64     `json:"clubId,omitempty"`
	AgentID    int64     `json:"agentId,omitempty"`
	DoctorID   int64     `json:"doctorId,omitempty"`
	Message    string    `json:"message"`
	IsFromUser bool      `json:"isFromUser"`
	Timestamp  time.Time `json:"timestamp"`
}

// Identity returns the routing attributes of the message.
func (m *ChatMessage) Identity() Identity {
	return Identity{
		UserID:   m.UserID,
		TalentID: m.TalentID,
		ClubID:   m.ClubID,
		AgentID:  m.AgentID,
		DoctorID: m.DoctorID,
	}
}
