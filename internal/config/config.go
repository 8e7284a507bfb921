package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds the configuration for the confidant service.
// Environment variables are parsed from the CONFIDANT_ prefix,
// e.g. CONFIDANT_HTTP_PORT, CONFIDANT_CHAT_API_KEY.
type Config struct {
	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Storage
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/confidant.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Vision model (screenshot parsing)
	VisionAPIKey  string `envconfig:"VISION_API_KEY" default:""`
	VisionAPIBase string `envconfig:"VISION_API_BASE" default:""`
	VisionModel   string `envconfig:"VISION_MODEL" default:"gpt-4o-mini"`

	// Chat model (analysis and assistance)
	ChatAPIKey  string `envconfig:"CHAT_API_KEY" default:""`
	ChatAPIBase string `envconfig:"CHAT_API_BASE" default:""`
	ChatModel   string `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`

	// The single relationship-wide timezone used for day bucketing and
	// timestamp fill-in. Hours east of UTC; +8 matches the original data set.
	UTCOffsetHours int `envconfig:"UTC_OFFSET_HOURS" default:"8"`

	// Reasoning loop and context assembly knobs
	AssistMaxRounds     int `envconfig:"ASSIST_MAX_ROUNDS" default:"5"`
	ContextInsightCount int `envconfig:"CONTEXT_INSIGHT_COUNT" default:"5"`
}

// New creates a Config by parsing CONFIDANT_-prefixed environment variables.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("CONFIDANT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("vision_model", cfg.VisionModel).
		Str("chat_model", cfg.ChatModel).
		Int("utc_offset_hours", cfg.UTCOffsetHours).
		Int("assist_max_rounds", cfg.AssistMaxRounds).
		Msg("Configuration loaded")

	return &cfg, nil
}

// Validate checks driver selection and the offset range.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN required for postgres driver")
	}
	if c.UTCOffsetHours < -12 || c.UTCOffsetHours > 14 {
		return fmt.Errorf("UTC_OFFSET_HOURS out of range: %d", c.UTCOffsetHours)
	}
	if c.AssistMaxRounds < 1 {
		return fmt.Errorf("ASSIST_MAX_ROUNDS must be positive")
	}
	return nil
}

// Location returns the fixed local timezone all day bucketing uses.
func (c *Config) Location() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", c.UTCOffsetHours), c.UTCOffsetHours*3600)
}

// GetHTTPAddr returns the HTTP server listen address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// NewForTesting returns a config suitable for unit tests.
func NewForTesting() *Config {
	return &Config{
		HTTPPort:            8080,
		DBDriver:            "sqlite",
		SQLitePath:          ":memory:",
		UTCOffsetHours:      8,
		AssistMaxRounds:     5,
		ContextInsightCount: 5,
		VisionModel:         "test-vision",
		ChatModel:           "test-chat",
	}
}
