// Package logger provides the configured zerolog logger used across the
// service and CLI.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a service-tagged logger. CONFIDANT_LOG_LEVEL selects the
// minimum level (trace..panic); anything unset or unparsable means info.
func New(serviceName string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(os.Getenv("CONFIDANT_LOG_LEVEL"))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}
