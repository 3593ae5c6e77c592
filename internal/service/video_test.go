package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/talentrelay/internal/config"
	"github.com/xiaot623/talentrelay/internal/domain"
	"github.com/xiaot623/talentrelay/internal/repository"
	"github.com/xiaot623/talentrelay/policy"
	"github.com/xiaot623/talentrelay/tests/helpers"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (*Service, store.Store, *fakeClock) {
	t.Helper()
	ctx := context.Background()
	db := helpers.NewTestSQLiteStore(t)
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	require.NoError(t, err)

	cfg := &config.Config{
		AdminRole:        "admin",
		RecordingBaseURL: "https://rec.example/",
		AutoReplyText:    "canned",
	}
	svc := New(db, policyEngine, cfg)
	clock := &fakeClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	svc.now = clock.Now
	return svc, db, clock
}

var (
	host     = &domain.Principal{ID: 1, Role: "club"}
	attendee = &domain.Principal{ID: 2, Role: "player"}
	stranger = &domain.Principal{ID: 3, Role: "coach"}
	admin    = &domain.Principal{ID: 99, Role: "admin"}
)

func TestCreateVideoSession(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	vs, err := svc.CreateVideoSession(ctx, host, domain.CreateVideoSessionRequest{Attendees: []int64{4, 1, 4}})
	require.NoError(t, err)

	assert.NotEmpty(t, vs.SessionID)
	assert.NotZero(t, vs.ID)
	assert.Equal(t, int64(1), vs.HostID)
	assert.Equal(t, []int64{1, 4}, vs.Participants)
	assert.Equal(t, domain.SessionStatusScheduled, vs.Status)
	assert.True(t, vs.StartTime.Equal(clock.t))
	assert.Equal(t, "Session "+vs.SessionID[:8], vs.Title)
	assert.Equal(t, "/video-sessions/"+vs.SessionID, vs.MeetingLink)

	scheduled := clock.t.Add(48 * time.Hour)
	title := "Trial review"
	vs2, err := svc.CreateVideoSession(ctx, host, domain.CreateVideoSessionRequest{Title: &title, ScheduledFor: &scheduled})
	require.NoError(t, err)
	assert.Equal(t, "Trial review", vs2.Title)
	assert.True(t, vs2.StartTime.Equal(scheduled))
	assert.NotEqual(t, vs.SessionID, vs2.SessionID)
}

func TestCreateVideoSessionErrors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateVideoSession(ctx, nil, domain.CreateVideoSessionRequest{})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.CreateVideoSession(ctx, host, domain.CreateVideoSessionRequest{Attendees: []int64{-1}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	missing := int64(404)
	_, err = svc.CreateVideoSession(ctx, host, domain.CreateVideoSessionRequest{AppointmentID: &missing})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateVideoSessionWithAppointment(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	ap, err := svc.CreateAppointment(ctx, host, domain.CreateAppointmentRequest{Title: "Scouting call", IsVideoMeeting: true})
	require.NoError(t, err)

	vs, err := svc.CreateVideoSession(ctx, host, domain.CreateVideoSessionRequest{AppointmentID: &ap.ID})
	require.NoError(t, err)
	require.NotNil(t, vs.AppointmentID)
	assert.Equal(t, ap.ID, *vs.AppointmentID)
}

func TestListVideoSessionsForUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	hosted, err := svc.CreateVideoSession(ctx, host, domain.CreateVideoSessionRequest{})
	require.NoError(t, err)
	invited, err := svc.CreateVideoSession(ctx, stranger, domain.CreateVideoSessionRequest{Attendees: []int64{1}})
	require.NoError(t, err)
	_, err = svc.CreateVideoSession(ctx, stranger, domain.CreateVideoSessionRequest{})
	require.NoError(t, err)

	sessions, err := svc.ListVideoSessions(ctx, host)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, hosted.SessionID, sessions[0].SessionID)
	assert.Equal(t, invited.SessionID, sessions[1].SessionID)

	none, err := svc.ListVideoSessions(ctx, attendee)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.ListVideoSessions(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestJoinIsIdempotent(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	vs, err := svc.CreateVideoSession(ctx, host, domain.CreateVideoSessionRequest{})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		res, err := svc.JoinVideoSession(ctx, attendee, vs.SessionID)
		require.NoError(t, err)
		assert.Equal(t, domain.SessionRoleAttendee, res.UserRole)
	}

	stored, err := db.GetVideoSessionBySessionID(ctx, vs.SessionID)
	require.NoError(t, err)
	count := 0
	for _, id := range stored.Participants {
		if id == attendee.ID {
			count++
		}
	}
	assert.Equal(t, 1, count)

	res, err := svc.JoinVideoSession(ctx, host, vs.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionRoleHost, res.UserRole)

	_, err = svc.JoinVideoSession(ctx, attendee, "no-such-token")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestHostIsImplicitMember(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	vs, err := svc.CreateVideoSession(ctx, host, domain.CreateVideoSessionRequest{Attendees: []int64{2}})
	require.NoError(t, err)

	// Drop the host from the stored list.
	_, err = db.UpdateVideoSessionParticipants(ctx, vs.ID, []int64{2})
	require.NoError(t, err)

	_, err = svc.RecordVideoSession(ctx, host, vs.SessionID)
	require.NoError(t, err)
	rec, err := svc.GetRecording(ctx, host, vs.SessionID)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.RecordingURL)

	sessions, err := svc.ListVideoSessions(ctx, host)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	res, err := svc.JoinVideoSession(ctx, host, vs.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionRoleHost, res.UserRole)
	assert.Equal(t, []int64{2}, res.Session.Participants, "host join must not rewrite the list")
}

func TestStartKeepsFirstStartTimeAndEndOverwrites(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	vs, err := svc.CreateVideoSession(ctx, host, domain.CreateVideoSessionRequest{})
	require.NoError(t, err)
	_, err = svc.JoinVideoSession(ctx, attendee, vs.SessionID)
	require.NoError(t, err)

	t0 := clock.t
	started, err := svc.StartVideoSession(ctx, host, vs.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusActive, started.Status)
	require.NotNil(t, started.ActualStartTime)
	assert.True(t, started.ActualStartTime.Equal(t0))

	clock.Advance(time.Minute)
	restarted, err := svc.StartVideoSession(ctx, host, vs.SessionID)
	require.NoError(t, err)
	assert.True(t, restarted.ActualStartTime.Equal(t0), "start time must not be reset")

	clock.Advance(time.Hour)
	t2 := clock.t
	ended, err := svc.EndVideoSession(ctx, host, vs.SessionID, domain.EndVideoSessionRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusCompleted, ended.Status)
	require.NotNil(t, ended.ActualEndTime)
	assert.True(t, ended.ActualEndTime.Equal(t2))

	clock.Advance(time.Minute)
	t3 := clock.t
	endedAgain, err := svc.EndVideoSession(ctx, admin, vs.SessionID, domain.EndVideoSessionRequest{})
	require.NoError(t, err)
	assert.True(t, endedAgain.ActualEndTime.Equal(t3), "end time follows the latest call")

	explicit := t3.Add(-30 * time.Minute)
	endedExplicit, err := svc.EndVideoSession(ctx, host, vs.SessionID, domain.EndVideoSessionRequest{EndTime: &explicit})
	require.NoError(t, err)
	assert.True(t, endedExplicit.ActualEndTime.Equal(explicit))
	assert.True(t, endedExplicit.ActualStartTime.Equal(t0))
}

func TestStatusIsForwardOnly(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	vs, err := svc.CreateVideoSession(ctx, host, domain.CreateVideoSessionRequest{})
	require.NoError(t, err)
	_, err = svc.EndVideoSession(ctx, host, vs.SessionID, domain.EndVideoSessionRequest{})
	require.NoError(t, err)

	_, err = svc.StartVideoSession(ctx, host, vs.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionCompleted)
	assert.ErrorIs(t, err, domain.ErrValidation)

	stored, err := db.GetVideoSession(ctx, vs.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusCompleted, stored.Status)
	assert.Nil(t, stored.ActualStartTime)
}

func TestMutationsRequireHostOrAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	vs, err := svc.CreateVideoSession(ctx, host, domain.CreateVideoSessionRequest{})
	require.NoError(t, err)
	_, err = svc.JoinVideoSession(ctx, attendee, vs.SessionID)
	require.NoError(t, err)

	_, err = svc.StartVideoSession(ctx, attendee, vs.SessionID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.EndVideoSession(ctx, stranger, vs.SessionID, domain.EndVideoSessionRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.RecordVideoSession(ctx, attendee, vs.SessionID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.StartVideoSession(ctx, admin, vs.SessionID)
	assert.NoError(t, err)

	_, err = svc.StartVideoSession(ctx, nil, vs.SessionID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = svc.StartVideoSession(ctx, host, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRecordingAbsenceIsDistinct(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	vs, err := svc.CreateVideoSession(ctx, host, domain.CreateVideoSessionRequest{Attendees: []int64{attendee.ID}})
	require.NoError(t, err)

	_, err = svc.GetRecording(ctx, attendee, vs.SessionID)
	assert.ErrorIs(t, err, domain.ErrRecordingNotFound)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = svc.GetRecording(ctx, attendee, "unknown-token")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.NotErrorIs(t, err, domain.ErrRecordingNotFound)

	rec, err := svc.RecordVideoSession(ctx, host, fmt.Sprint(vs.ID))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("https://rec.example/video-sessions/%d/recording.mp4", vs.ID), rec.RecordingURL)

	got, err := svc.GetRecording(ctx, attendee, fmt.Sprint(vs.ID))
	require.NoError(t, err)
	assert.Equal(t, rec.RecordingURL, got.RecordingURL)

	_, err = svc.GetRecording(ctx, stranger, vs.SessionID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLifecycleScenario(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()
	a := &domain.Principal{ID: 1, Role: "player"}
	b := &domain.Principal{ID: 2, Role: "player"}

	vs, err := svc.CreateVideoSession(ctx, a, domain.CreateVideoSessionRequest{})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, vs.Participants)
	assert.Equal(t, domain.SessionStatusScheduled, vs.Status)

	joined, err := svc.JoinVideoSession(ctx, b, vs.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, joined.Session.Participants)
	assert.Equal(t, domain.SessionRoleAttendee, joined.UserRole)

	t0 := clock.t
	started, err := svc.StartVideoSession(ctx, a, vs.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusActive, started.Status)

	clock.Advance(5 * time.Minute)
	again, err := svc.StartVideoSession(ctx, a, vs.SessionID)
	require.NoError(t, err)
	assert.True(t, again.ActualStartTime.Equal(t0))

	clock.Advance(time.Hour)
	t2 := clock.t
	ended, err := svc.EndVideoSession(ctx, a, vs.SessionID, domain.EndVideoSessionRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusCompleted, ended.Status)
	assert.True(t, ended.ActualEndTime.Equal(t2))
}
