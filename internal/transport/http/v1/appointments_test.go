package v1

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/talentrelay/internal/domain"
)

func TestAppointmentsRoutes(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/appointments", 1, map[string]interface{}{
		"title":          "Medical check",
		"doctorId":       31,
		"attendees":      []int64{2},
		"isVideoMeeting": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ap domain.Appointment
	decode(t, rec, &ap)
	assert.Equal(t, domain.AppointmentStatusPending, ap.Status)

	rec = api.do(http.MethodGet, "/appointments/"+strconv.FormatInt(ap.ID, 10), 2, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Appointment
	decode(t, rec, &got)
	assert.Equal(t, "Medical check", got.Title)
	assert.Equal(t, int64(31), got.DoctorID)

	assertError(t, api.do(http.MethodGet, "/appointments/404", 2, nil), http.StatusNotFound, "appointment_not_found")
	assertError(t, api.do(http.MethodGet, "/appointments/abc", 2, nil), http.StatusNotFound, "appointment_not_found")
	assertError(t, api.do(http.MethodPost, "/appointments", 1, map[string]interface{}{"title": "x", "status": "scheduled"}),
		http.StatusBadRequest, "validation_error")
	assertError(t, api.do(http.MethodPost, "/appointments", 0, map[string]interface{}{"title": "x"}),
		http.StatusUnauthorized, "unauthenticated")

	// A session may reference the appointment, but not a missing one.
	rec = api.do(http.MethodPost, "/video-sessions", 1, map[string]interface{}{"appointmentId": ap.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	assertError(t, api.do(http.MethodPost, "/video-sessions", 1, map[string]interface{}{"appointmentId": 404}),
		http.StatusBadRequest, "validation_error")
}

func TestChatMessagesRoute(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/chat-messages", 2, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"messages":[]}`, rec.Body.String())

	assertError(t, api.do(http.MethodGet, "/chat-messages", 0, nil), http.StatusUnauthorized, "unauthenticated")
}
