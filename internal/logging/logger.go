package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger so packages share one construction path.
type Logger struct {
	zerolog.Logger
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New creates a console logger on stderr.
func New(level string) *Logger {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return NewWithOutput(level, output)
}

// NewWithOutput creates a logger writing JSON lines (or whatever w renders) to w.
func NewWithOutput(level string, w io.Writer) *Logger {
	l := zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
	return &Logger{Logger: l}
}

// NewSilent discards everything; used by tests and optional collaborators.
func NewSilent() *Logger {
	return &Logger{Logger: zerolog.New(io.Discard)}
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.With().Str("component", name).Logger()}
}
