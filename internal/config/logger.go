package config

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// AppName identifies this service in logs and outbound requests.
const AppName = "baratosociais"

// NewLogger creates a new logger based on the configuration.
// Every entry carries the application name.
func NewLogger(cfg LoggerConfig) zerolog.Logger {
	// Set log level
	var level zerolog.Level
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Str("app", AppName).Logger()
	} else {
		logger = zerolog.New(os.Stdout).With().Timestamp().Str("app", AppName).Logger()
	}

	return logger
}
