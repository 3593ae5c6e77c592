package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/talentrelay/internal/auth"
	"github.com/xiaot623/talentrelay/internal/domain"
)

// CreateAppointment stores an appointment created by the caller.
func (h *Handler) CreateAppointment(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return writeError(c, err)
	}

	var req domain.CreateAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	ap, err := h.service.CreateAppointment(c.Request().Context(), p, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, ap)
}

// GetAppointment returns one appointment.
func (h *Handler) GetAppointment(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return writeError(c, err)
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return writeError(c, domain.ErrAppointmentNotFound)
	}

	ap, err := h.service.GetAppointment(c.Request().Context(), p, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ap)
}
