// Package domain defines the core domain models for the relay.
package domain

// SessionStatus represents the lifecycle state of a video session.
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

var sessionStatusRank = map[SessionStatus]int{
	SessionStatusScheduled: 0,
	SessionStatusActive:    1,
	SessionStatusCompleted: 2,
}

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	_, ok := sessionStatusRank[s]
	return ok
}

// CanTransition reports whether a session may move from one status to another.
// Transitions are forward-only; re-entering the current status is allowed
// except out of completed, which is terminal.
func CanTransition(from, to SessionStatus) bool {
	if from == SessionStatusCompleted {
		return to == SessionStatusCompleted
	}
	f, ok := sessionStatusRank[from]
	if !ok {
		return false
	}
	t, ok := sessionStatusRank[to]
	if !ok {
		return false
	}
	return t >= f
}

// SessionRole is the caller's role inside a video session.
type SessionRole string

const (
	SessionRoleHost     SessionRole = "host"
	SessionRoleAttendee SessionRole = "attendee"
)

// AppointmentStatus represents the status of an appointment.
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// Valid reports whether s is a known appointment status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// Session actions checked by the access policy.
const (
	ActionStart         = "start"
	ActionEnd           = "end"
	ActionRecord        = "record"
	ActionViewRecording = "view_recording"
)
