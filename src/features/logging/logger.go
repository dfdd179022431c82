package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/contre95/vinylshelf/src/features/config"
)

// SetupLogger builds the slog logger described by the logger section.
func SetupLogger(cfg *config.Manager) *slog.Logger {
	logCfg := cfg.Get().Logger

	var formatter log.Formatter
	switch logCfg.Format {
	case "json":
		formatter = log.JSONFormatter
	case "text":
		formatter = log.TextFormatter
	default:
		formatter = log.LogfmtFormatter
	}

	var out io.Writer = os.Stderr
	if !logCfg.Enabled {
		out = io.Discard
	}

	handler := log.NewWithOptions(out, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "Vinylshelf",
		Formatter:       formatter,
		Level:           ParseLevel(logCfg.Level),
	})

	logger := slog.New(handler)
	logger.Debug("Logger initialized", "time", time.Now().Format(time.RFC3339))
	return logger
}

// ParseLevel maps the config level names onto charmbracelet levels. Unknown
// names mean info.
func ParseLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
