package avatar

import (
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// InitializeLogging sets the package log level and, in debug mode,
// mirrors engine logs to a file so tick-loop output can be inspected
// without scrolling the host's terminal.
func InitializeLogging(debug bool) {
	if !debug {
		log.SetLevel(log.InfoLevel)
		return
	}

	log.SetLevel(log.DebugLevel)

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	logDir := filepath.Join(home, ".avatarkit")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Warn("failed to create log directory", "error", err)
		return
	}

	logPath := filepath.Join(logDir, "debug.log")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Warn("failed to open debug log file", "error", err)
		return
	}

	// The file stays open for the process lifetime.
	log.SetDefault(log.NewWithOptions(file, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           log.DebugLevel,
	}))
	log.Debug("debug logging enabled", "path", logPath)
}
