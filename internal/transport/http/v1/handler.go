// Package v1 provides the public HTTP handlers of the relay.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/xiaot623/talentrelay/internal/domain"
	"github.com/xiaot623/talentrelay/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the public routes with the echo server.
// Every route expects the principal set by the auth middleware.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Video sessions. One param name per position, :sessionId takes an id or a token.
	e.POST("/video-sessions", h.CreateVideoSession)
	e.GET("/video-sessions", h.ListVideoSessions)
	e.POST("/video-sessions/:sessionId/join", h.JoinVideoSession)
	e.POST("/video-sessions/:sessionId/start", h.StartVideoSession)
	e.POST("/video-sessions/:sessionId/end", h.EndVideoSession)
	e.POST("/video-sessions/:sessionId/record", h.RecordVideoSession)
	e.GET("/video-sessions/:sessionId/recording", h.GetRecording)

	// Appointments
	e.POST("/appointments", h.CreateAppointment)
	e.GET("/appointments/:id", h.GetAppointment)

	// Chat history
	e.GET("/chat-messages", h.ListChatMessages)
}

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError maps a service error onto a status code and error body.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error(), Code: "unauthenticated"})
	case errors.Is(err, domain.ErrForbidden):
		return c.JSON(http.StatusForbidden, errorResponse{Error: err.Error(), Code: "forbidden"})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error(), Code: notFoundCode(err)})
	case errors.Is(err, domain.ErrValidation):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation_error"})
	default:
		log.Error().Str("module", "http").Str("method", c.Request().Method).Str("path", c.Path()).
			Err(err).Msg("request failed")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal_error"})
	}
}

func notFoundCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrRecordingNotFound):
		return "recording_not_found"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, domain.ErrAppointmentNotFound):
		return "appointment_not_found"
	default:
		return "not_found"
	}
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: message, Code: "validation_error"})
}
