package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/talentrelay/internal/auth"
)

// ListChatMessages returns the caller's chat history.
func (h *Handler) ListChatMessages(c echo.Context) error {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return writeError(c, err)
	}

	messages, err := h.service.ListChatMessages(c.Request().Context(), p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"messages": messages})
}
