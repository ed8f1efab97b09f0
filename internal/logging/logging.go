package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Format selects the log encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
)

// New returns a zerolog logger configured for stdout at info level.
func New() zerolog.Logger {
	return NewWithLevel("info")
}

// NewWithLevel returns a JSON stdout logger at the given level.
// Unknown levels fall back to info.
func NewWithLevel(level string) zerolog.Logger {
	return NewWithOptions(os.Stdout, level, FormatJSON)
}

// NewWithOptions returns a logger writing to w with the given level and format.
// The level is applied to the logger itself, never to zerolog's global state.
func NewWithOptions(w io.Writer, level string, format Format) zerolog.Logger {
	if strings.EqualFold(strings.TrimSpace(string(format)), string(FormatConsole)) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("service", "container-sentinel").
		Logger()
}

// ParseLevel maps a case-insensitive level name to a zerolog level.
// Unknown names map to info.
func ParseLevel(level string) zerolog.Level {
	parsed, ok := lookupLevel(level)
	if !ok {
		return zerolog.InfoLevel
	}
	return parsed
}

// ValidLevel reports whether level names a known level. Empty means the default.
func ValidLevel(level string) bool {
	_, ok := lookupLevel(level)
	return ok
}

func lookupLevel(level string) (zerolog.Level, bool) {
	normalized := strings.ToLower(strings.TrimSpace(level))
	if normalized == "warning" {
		normalized = "warn"
	}
	if normalized == "" {
		return zerolog.InfoLevel, true
	}
	parsed, err := zerolog.ParseLevel(normalized)
	if err != nil || parsed < zerolog.TraceLevel || parsed > zerolog.PanicLevel {
		return zerolog.InfoLevel, false
	}
	return parsed, true
}
