package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xiaot623/talentrelay/internal/auth"
	"github.com/xiaot623/talentrelay/internal/config"
	internalhttp "github.com/xiaot623/talentrelay/internal/http"
	"github.com/xiaot623/talentrelay/internal/hub"
	"github.com/xiaot623/talentrelay/internal/repository"
	"github.com/xiaot623/talentrelay/internal/service"
	v1 "github.com/xiaot623/talentrelay/internal/transport/http/v1"
	"github.com/xiaot623/talentrelay/internal/ws"
	"github.com/xiaot623/talentrelay/policy"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	log.Info().Int("ws_port", cfg.WSPort).Int("http_port", cfg.HTTPPort).Str("database", cfg.DatabaseURL).
		Msg("starting relay")
	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty, every bearer token will be rejected")
	}

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer db.Close()

	// Initialize policy engine
	policyEngine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize policy engine")
	}

	authenticator := auth.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer)
	connectionHub := hub.NewHub(cfg.SendBuffer)
	svc := service.New(db, policyEngine, cfg)

	// Initialize WebSocket server
	wsServer := ws.NewServer(cfg, connectionHub, svc, authenticator)

	wsEcho := echo.New()
	wsEcho.HideBanner = true
	wsEcho.HidePort = true
	wsEcho.Use(internalhttp.RequestLogger())
	wsEcho.Use(middleware.Recover())
	wsEcho.GET("/ws", wsServer.HandleWebSocket)

	// Initialize HTTP API server
	httpServer := internalhttp.NewServer(connectionHub, v1.NewHandler(svc), authenticator)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.WSPort)
		if err := wsEcho.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start WebSocket server")
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start HTTP server")
		}
	}()

	log.Info().Msg("relay started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down relay")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := wsEcho.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown WebSocket server gracefully")
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown HTTP server gracefully")
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("pending auto-replies abandoned")
	}

	log.Info().Msg("relay stopped")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
