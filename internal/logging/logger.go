// Package logging builds the structured logger used across herd.
//
// Log records are written through log/slog as JSON or logfmt-style text.
// Callers receive a logr.Logger so the logger can travel in a
// context.Context (logr.NewContext / logr.FromContextOrDiscard) down to every
// pipeline.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-logr/logr"
)

// Log levels supported by the logger
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Log formats supported by the logger
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ValidLevels returns the accepted level names.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}

// ValidFormats returns the accepted format names.
func ValidFormats() []string {
	return []string{FormatText, FormatJSON}
}

// New returns a logger writing to w at the given level and format.
//
// logr verbosity maps onto slog levels: V(0) is info, V(1) and above are
// debug. Errors logged with logger.Error are always emitted.
func New(w io.Writer, level, format string) (logr.Logger, error) {
	slogLevel, err := ParseLevel(level)
	if err != nil {
		return logr.Discard(), err
	}

	opts := &slog.HandlerOptions{Level: slogLevel}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	case FormatText, "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return logr.Discard(), fmt.Errorf("invalid log format %q (valid formats: %s)", format, strings.Join(ValidFormats(), ", "))
	}

	return logr.FromSlogHandler(handler), nil
}

// ParseLevel converts a level name to a slog.Level. Matching is case
// insensitive; an empty name means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case LevelDebug:
		return slog.LevelDebug, nil
	case LevelInfo, "":
		return slog.LevelInfo, nil
	case LevelWarn, "warning":
		return slog.LevelWarn, nil
	case LevelError:
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (valid levels: %s)", level, strings.Join(ValidLevels(), ", "))
	}
}
