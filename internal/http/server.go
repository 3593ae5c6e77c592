// Package http provides the HTTP API server of the relay.
package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/xiaot623/talentrelay/internal/auth"
	"github.com/xiaot623/talentrelay/internal/hub"
	v1 "github.com/xiaot623/talentrelay/internal/transport/http/v1"
)

// Server is the HTTP API server.
type Server struct {
	echo *echo.Echo
	hub  *hub.Hub
}

// NewServer creates the HTTP API server and mounts the v1 routes behind the
// bearer-token middleware.
func NewServer(h *hub.Hub, handler *v1.Handler, authenticator *auth.Authenticator) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(authenticator.Middleware())

	s := &Server{
		echo: e,
		hub:  h,
	}

	// Register routes
	e.GET("/health", s.handleHealth)
	handler.RegisterRoutes(e)

	return s
}

// RequestLogger logs one zerolog line per request.
func RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				evt = log.Error().Err(v.Error)
			}
			evt.Str("module", "http").Str("method", v.Method).Str("uri", v.URI).
				Int("status", v.Status).Dur("latency", v.Latency).Msg("request")
			return nil
		},
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"connections": s.hub.GetConnectionCount(),
		"sessions":    s.hub.GetSessionCount(),
	})
}
