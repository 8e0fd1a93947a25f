package observability

import (
	"log/slog"
	"os"

	"github.com/mskaar/nbpress/internal/config"
)

// Setup installs the process-wide slog default according to logging config.
// Verbose forces debug level regardless of the configured level.
func Setup(cfg config.LoggingConfig, verbose bool) *slog.Logger {
	level := slogLevel(config.NormalizeLogLevel(cfg.Level))
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if config.NormalizeLogFormat(cfg.Format) == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func slogLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
