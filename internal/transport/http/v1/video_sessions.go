package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/talentrelay/internal/auth"
	"github.com/xiaot623/talentrelay/internal/domain"
)

// CreateVideoSession schedules a session hosted by the caller.
func (h *Handler) CreateVideoSession(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return writeError(c, err)
	}

	var req domain.CreateVideoSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	vs, err := h.service.CreateVideoSession(c.Request().Context(), p, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, vs)
}

// ListVideoSessions lists the sessions the caller hosts or attends.
func (h *Handler) ListVideoSessions(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return writeError(c, err)
	}

	sessions, err := h.service.ListVideoSessions(c.Request().Context(), p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// JoinVideoSession adds the caller to a session.
func (h *Handler) JoinVideoSession(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return writeError(c, err)
	}

	res, err := h.service.JoinVideoSession(c.Request().Context(), p, c.Param("sessionId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// StartVideoSession marks a session active.
func (h *Handler) StartVideoSession(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return writeError(c, err)
	}

	vs, err := h.service.StartVideoSession(c.Request().Context(), p, c.Param("sessionId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, vs)
}

// EndVideoSession completes a session. The body is optional.
func (h *Handler) EndVideoSession(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return writeError(c, err)
	}

	var req domain.EndVideoSessionRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
	}

	vs, err := h.service.EndVideoSession(c.Request().Context(), p, c.Param("sessionId"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, vs)
}

// RecordVideoSession attaches a recording to a session.
func (h *Handler) RecordVideoSession(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return writeError(c, err)
	}

	rec, err := h.service.RecordVideoSession(c.Request().Context(), p, c.Param("sessionId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// GetRecording returns the recording URL of a session.
func (h *Handler) GetRecording(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return writeError(c, err)
	}

	rec, err := h.service.GetRecording(c.Request().Context(), p, c.Param("sessionId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}
