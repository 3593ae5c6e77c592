// Package config provides configuration for the relay service.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the relay configuration.
type Config struct {
	// Server settings
	WSPort   int `mapstructure:"WS_PORT"`   // External WebSocket port
	HTTPPort int `mapstructure:"HTTP_PORT"` // HTTP API port for /video-sessions, /health

	// Database settings
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Auth settings
	JWTSecret string `mapstructure:"JWT_SECRET"`
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	AdminRole string `mapstructure:"ADMIN_ROLE"`

	// WebSocket settings
	PingInterval   time.Duration `mapstructure:"-"`
	WriteTimeout   time.Duration `mapstructure:"-"`
	ReadTimeout    time.Duration `mapstructure:"-"`
	MaxMessageSize int64         `mapstructure:"WS_MAX_MESSAGE_SIZE"`
	SendBuffer     int           `mapstructure:"WS_SEND_BUFFER"`

	// Chat settings
	AutoReplyDelay time.Duration `mapstructure:"-"`
	AutoReplyText  string        `mapstructure:"CHAT_AUTO_REPLY_TEXT"`

	// Recording settings
	RecordingBaseURL string `mapstructure:"RECORDING_BASE_URL"`

	// Logging
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	ShutdownTimeout time.Duration `mapstructure:"-"`
}

var defaults = map[string]interface{}{
	"WS_PORT":                  8090,
	"HTTP_PORT":                8091,
	"DATABASE_URL":             "file:talentrelay.db?cache=shared&mode=rwc",
	"JWT_SECRET":               "",
	"JWT_ISSUER":               "talentrelay",
	"ADMIN_ROLE":               "admin",
	"WS_PING_INTERVAL_MS":      30000,
	"WS_WRITE_TIMEOUT_MS":      10000,
	"WS_READ_TIMEOUT_MS":       60000,
	"WS_MAX_MESSAGE_SIZE":      65536,
	"WS_SEND_BUFFER":           256,
	"CHAT_AUTO_REPLY_DELAY_MS": 1000,
	"CHAT_AUTO_REPLY_TEXT":     "Thanks for reaching out! The club has received your message and will reply soon.",
	"RECORDING_BASE_URL":       "https://recordings.talentrelay.local",
	"LOG_LEVEL":                "info",
	"LOG_FORMAT":               "json",
	"SHUTDOWN_TIMEOUT_MS":      10000,
}

// Load loads configuration from the environment, reading a .env file first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.PingInterval = millis(v, "WS_PING_INTERVAL_MS")
	cfg.WriteTimeout = millis(v, "WS_WRITE_TIMEOUT_MS")
	cfg.ReadTimeout = millis(v, "WS_READ_TIMEOUT_MS")
	cfg.AutoReplyDelay = millis(v, "CHAT_AUTO_REPLY_DELAY_MS")
	cfg.ShutdownTimeout = millis(v, "SHUTDOWN_TIMEOUT_MS")

	if cfg.SendBuffer <= 0 {
		return nil, fmt.Errorf("WS_SEND_BUFFER must be positive, got %d", cfg.SendBuffer)
	}
	if cfg.PingInterval <= 0 || cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= 0 {
		return nil, fmt.Errorf("websocket timeouts must be positive")
	}
	if cfg.AutoReplyDelay < 0 {
		return nil, fmt.Errorf("CHAT_AUTO_REPLY_DELAY_MS must not be negative")
	}

	return &cfg, nil
}

func millis(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt64(key)) * time.Millisecond
}
