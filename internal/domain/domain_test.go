package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityMatching(t *testing.T) {
	player := Identity{UserID: 1, ClubID: 7}
	sameUserOtherTab := Identity{UserID: 1}
	club := Identity{UserID: 2, ClubID: 7}
	guest := Identity{}

	assert.True(t, player.Intersects(sameUserOtherTab))
	assert.True(t, player.Intersects(club))
	assert.False(t, sameUserOtherTab.Intersects(club))
	assert.False(t, guest.Intersects(guest), "zero fields never match")
	assert.True(t, guest.IsZero())

	assert.True(t, club.HasRoleID(7))
	assert.False(t, club.HasRoleID(2), "user id is not a role slot")
	assert.False(t, guest.HasRoleID(0))

	assert.Equal(t, int64(7), player.CounterpartID())
	assert.Equal(t, int64(9), Identity{TalentID: 9, DoctorID: 4}.CounterpartID())
	assert.Zero(t, guest.CounterpartID())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(SessionStatusScheduled, SessionStatusActive))
	assert.True(t, CanTransition(SessionStatusActive, SessionStatusActive))
	assert.True(t, CanTransition(SessionStatusScheduled, SessionStatusCompleted))
	assert.True(t, CanTransition(SessionStatusCompleted, SessionStatusCompleted))
	assert.False(t, CanTransition(SessionStatusCompleted, SessionStatusActive))
	assert.False(t, CanTransition(SessionStatusActive, SessionStatusScheduled))
	assert.False(t, CanTransition("cancelled", SessionStatusActive))
}

func TestHasParticipantIncludesHost(t *testing.T) {
	vs := &VideoSession{HostID: 1, Participants: []int64{2}}
	assert.True(t, vs.HasParticipant(1))
	assert.True(t, vs.HasParticipant(2))
	assert.False(t, vs.HasParticipant(3))
	assert.False(t, vs.IsHost(0))
}

func TestParticipantSet(t *testing.T) {
	assert.Equal(t, []int64{1, 2, 5}, ParticipantSet(5, 1, 2, 1, 0))
	assert.Equal(t, []int64{}, ParticipantSet())
}

func TestAppointmentStatusValid(t *testing.T) {
	assert.True(t, AppointmentStatusConfirmed.Valid())
	assert.False(t, AppointmentStatus("scheduled").Valid())
}

func TestSessionStatusValid(t *testing.T) {
	assert.True(t, SessionStatusActive.Valid())
	assert.False(t, SessionStatus("cancelled").Valid())
	assert.False(t, SessionStatus("").Valid())
}

func TestPrincipalIsAdmin(t *testing.T) {
	assert.True(t, (&Principal{ID: 1, Role: "admin"}).IsAdmin("admin"))
	assert.False(t, (&Principal{ID: 1, Role: "club"}).IsAdmin("admin"))
	assert.False(t, (&Principal{ID: 1}).IsAdmin(""), "an empty admin role grants nothing")

	var nobody *Principal
	assert.False(t, nobody.IsAdmin("admin"))
}

func TestChatMessageIdentity(t *testing.T) {
	m := &ChatMessage{UserID: 3, ClubID: 5, DoctorID: 8}
	assert.Equal(t, Identity{UserID: 3, ClubID: 5, DoctorID: 8}, m.Identity())
}
