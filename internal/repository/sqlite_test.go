package store

import (
	"context"
	"testing"
	"time"

	"github.com/xiaot623/talentrelay/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func createSession(t *testing.T, store *SQLiteStore, token string, host int64, participants ...int64) *domain.VideoSession {
	t.Helper()
	vs := &domain.VideoSession{
		SessionID:    token,
		HostID:       host,
		Title:        "Trial",
		Participants: append([]int64{host}, participants...),
		Status:       domain.SessionStatusScheduled,
		StartTime:    time.Now().UTC(),
	}
	if err := store.CreateVideoSession(context.Background(), vs); err != nil {
		t.Fatalf("CreateVideoSession failed: %v", err)
	}
	return vs
}

func TestSQLiteStoreVideoSessionLookup(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	vs := createSession(t, store, "tok-1", 1, 2, 2, 3)
	if vs.ID == 0 {
		t.Fatalf("expected id to be assigned")
	}

	byID, err := store.GetVideoSession(ctx, vs.ID)
	if err != nil {
		t.Fatalf("GetVideoSession failed: %v", err)
	}
	if byID == nil || byID.SessionID != "tok-1" {
		t.Fatalf("unexpected session: %+v", byID)
	}
	if len(byID.Participants) != 3 {
		t.Fatalf("expected participants [1 2 3], got %v", byID.Participants)
	}

	byToken, err := store.GetVideoSessionBySessionID(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetVideoSessionBySessionID failed: %v", err)
	}
	if byToken == nil || byToken.ID != vs.ID {
		t.Fatalf("unexpected session: %+v", byToken)
	}

	missing, err := store.GetVideoSessionBySessionID(ctx, "nope")
	if err != nil {
		t.Fatalf("GetVideoSessionBySessionID failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown token, got %+v", missing)
	}

	createSession(t, store, "tok-2", 9)
	all, err := store.GetVideoSessions(ctx)
	if err != nil {
		t.Fatalf("GetVideoSessions failed: %v", err)
	}
	if len(all) != 2 || len(all[1].Participants) != 1 {
		t.Fatalf("unexpected sessions: %+v", all)
	}
}

func TestSQLiteStoreStatusTimestamps(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	vs := createSession(t, store, "tok-1", 1)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)
	t2 := t0.Add(time.Hour)
	t3 := t2.Add(time.Hour)

	got, err := store.UpdateVideoSessionStatus(ctx, vs.ID, domain.SessionStatusActive, t0)
	if err != nil {
		t.Fatalf("UpdateVideoSessionStatus failed: %v", err)
	}
	if got.Status != domain.SessionStatusActive || got.ActualStartTime == nil || !got.ActualStartTime.Equal(t0) {
		t.Fatalf("unexpected session after start: %+v", got)
	}

	got, err = store.UpdateVideoSessionStatus(ctx, vs.ID, domain.SessionStatusActive, t1)
	if err != nil {
		t.Fatalf("UpdateVideoSessionStatus failed: %v", err)
	}
	if !got.ActualStartTime.Equal(t0) {
		t.Fatalf("start time overwritten: %v", got.ActualStartTime)
	}

	got, err = store.UpdateVideoSessionStatus(ctx, vs.ID, domain.SessionStatusCompleted, t2)
	if err != nil {
		t.Fatalf("UpdateVideoSessionStatus failed: %v", err)
	}
	if got.ActualEndTime == nil || !got.ActualEndTime.Equal(t2) {
		t.Fatalf("unexpected end time: %v", got.ActualEndTime)
	}

	got, err = store.UpdateVideoSessionStatus(ctx, vs.ID, domain.SessionStatusCompleted, t3)
	if err != nil {
		t.Fatalf("UpdateVideoSessionStatus failed: %v", err)
	}
	if !got.ActualEndTime.Equal(t3) {
		t.Fatalf("expected end time to be overwritten, got %v", got.ActualEndTime)
	}

	got, err = store.UpdateVideoSessionStatus(ctx, vs.ID, domain.SessionStatusActive, t3)
	if err != nil {
		t.Fatalf("UpdateVideoSessionStatus failed: %v", err)
	}
	if got.Status != domain.SessionStatusCompleted {
		t.Fatalf("completed session regressed to %s", got.Status)
	}
}

func TestSQLiteStoreParticipants(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	vs := createSession(t, store, "tok-1", 1)

	added, err := store.AddVideoSessionParticipant(ctx, vs.ID, 2)
	if err != nil || !added {
		t.Fatalf("AddVideoSessionParticipant: added=%v err=%v", added, err)
	}
	added, err = store.AddVideoSessionParticipant(ctx, vs.ID, 2)
	if err != nil || added {
		t.Fatalf("second AddVideoSessionParticipant: added=%v err=%v", added, err)
	}

	ok, err := store.IsSessionAttendee(ctx, vs.ID, 2)
	if err != nil || !ok {
		t.Fatalf("expected user 2 to attend: ok=%v err=%v", ok, err)
	}
	ok, err = store.IsSessionHost(ctx, vs.ID, 2)
	if err != nil || ok {
		t.Fatalf("user 2 is not host: ok=%v err=%v", ok, err)
	}

	got, err := store.UpdateVideoSessionParticipants(ctx, vs.ID, []int64{5, 4, 5})
	if err != nil {
		t.Fatalf("UpdateVideoSessionParticipants failed: %v", err)
	}
	if len(got.Participants) != 2 || got.Participants[0] != 4 || got.Participants[1] != 5 {
		t.Fatalf("unexpected participants: %v", got.Participants)
	}

	// The host counts as an attendee even when missing from the list.
	ok, err = store.IsSessionAttendee(ctx, vs.ID, 1)
	if err != nil || !ok {
		t.Fatalf("expected host to attend: ok=%v err=%v", ok, err)
	}

	got, err = store.UpdateVideoSessionRecording(ctx, vs.ID, "https://rec/1.mp4")
	if err != nil {
		t.Fatalf("UpdateVideoSessionRecording failed: %v", err)
	}
	if got.RecordingURL != "https://rec/1.mp4" {
		t.Fatalf("unexpected recording url: %q", got.RecordingURL)
	}
}

func TestSQLiteStoreChatMessages(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	base := time.Now().UTC()
	second := &domain.ChatMessage{UserID: 7, ClubID: 3, Message: "reply", IsFromUser: false, Timestamp: base.Add(time.Second)}
	first := &domain.ChatMessage{UserID: 7, ClubID: 3, Message: "hello", IsFromUser: true, Timestamp: base}
	guest := &domain.ChatMessage{ClubID: 3, Message: "anon", IsFromUser: true, Timestamp: base}
	for _, m := range []*domain.ChatMessage{second, first, guest} {
		if err := store.CreateChatMessage(ctx, m); err != nil {
			t.Fatalf("CreateChatMessage failed: %v", err)
		}
		if m.ID == 0 {
			t.Fatalf("expected id to be assigned")
		}
	}

	messages, err := store.GetChatMessages(ctx, 7)
	if err != nil {
		t.Fatalf("GetChatMessages failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Message != "hello" || messages[1].Message != "reply" {
		t.Fatalf("messages not chronological: %+v", messages)
	}
	if messages[0].ClubID != 3 || !messages[0].IsFromUser {
		t.Fatalf("unexpected message: %+v", messages[0])
	}
}

func TestSQLiteStoreAppointments(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	ap := &domain.Appointment{
		Title:          "Medical",
		DoctorID:       4,
		Attendees:      []int64{2, 1, 2},
		IsVideoMeeting: true,
		CreatedBy:      1,
	}
	if err := store.CreateAppointment(ctx, ap); err != nil {
		t.Fatalf("CreateAppointment failed: %v", err)
	}

	got, err := store.GetAppointment(ctx, ap.ID)
	if err != nil {
		t.Fatalf("GetAppointment failed: %v", err)
	}
	if got == nil || got.Status != domain.AppointmentStatusPending || got.DoctorID != 4 {
		t.Fatalf("unexpected appointment: %+v", got)
	}
	if len(got.Attendees) != 2 || !got.IsVideoMeeting {
		t.Fatalf("unexpected appointment: %+v", got)
	}

	missing, err := store.GetAppointment(ctx, 999)
	if err != nil || missing != nil {
		t.Fatalf("expected nil appointment, got %+v err=%v", missing, err)
	}

	vs := &domain.VideoSession{
		SessionID:     "tok-ap",
		HostID:        1,
		Title:         "Medical call",
		AppointmentID: &ap.ID,
		Participants:  []int64{1},
		StartTime:     time.Now().UTC(),
	}
	if err := store.CreateVideoSession(ctx, vs); err != nil {
		t.Fatalf("CreateVideoSession failed: %v", err)
	}
	linked, err := store.GetVideoSession(ctx, vs.ID)
	if err != nil {
		t.Fatalf("GetVideoSession failed: %v", err)
	}
	if linked.AppointmentID == nil || *linked.AppointmentID != ap.ID {
		t.Fatalf("unexpected appointment link: %v", linked.AppointmentID)
	}
	if linked.Status != domain.SessionStatusScheduled {
		t.Fatalf("expected scheduled, got %s", linked.Status)
	}
}

func TestSQLiteStoreRejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	vs := createSession(t, store, "tok-bad", 1)
	if _, err := store.UpdateVideoSessionStatus(ctx, vs.ID, domain.SessionStatus("cancelled"), time.Now()); err == nil {
		t.Fatal("expected an error for an unknown status")
	}

	got, err := store.GetVideoSession(ctx, vs.ID)
	if err != nil {
		t.Fatalf("GetVideoSession failed: %v", err)
	}
	if got.Status != domain.SessionStatusScheduled {
		t.Fatalf("status changed to %q", got.Status)
	}
}
