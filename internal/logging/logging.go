// Package logging wraps github.com/decred/slog into the small per-subsystem
// backend the rest of this module expects: one shared slog.Backend writing
// to a single sink, handing out named slog.Logger values per component
// (CBPD, CONN, DISCOVERY) the way the upstream project's
// bisonbotkit/logging.LogBackend does, minus the log-rotation and
// file-path plumbing this server has no use for.
package logging

import (
	"io"
	"os"

	"github.com/decred/slog"
)

// Level names accepted by ParseLevel, matching decred/slog's own set.
const (
	LevelTrace    = "trace"
	LevelDebug    = "debug"
	LevelInfo     = "info"
	LevelWarn     = "warn"
	LevelError    = "error"
	LevelCritical = "critical"
	LevelOff      = "off"
)

// Backend hands out named loggers sharing one underlying slog.Backend and
// level.
type Backend struct {
	backend *slog.Backend
	level   slog.Level
}

// NewBackend creates a Backend writing to w (os.Stderr if nil) at the given
// level name; an unrecognized name falls back to info.
func NewBackend(w io.Writer, levelName string) *Backend {
	if w == nil {
		w = os.Stderr
	}
	return &Backend{
		backend: slog.NewBackend(w),
		level:   ParseLevel(levelName),
	}
}

// ParseLevel maps a level name to a slog.Level, defaulting to LevelInfo.
func ParseLevel(name string) slog.Level {
	lvl, ok := slog.LevelFromString(name)
	if !ok {
		return slog.LevelInfo
	}
	return lvl
}

// Logger returns a named logger (e.g. "CONN", "DISCOVERY") at the backend's
// configured level.
func (b *Backend) Logger(subsystem string) slog.Logger {
	l := b.backend.Logger(subsystem)
	l.SetLevel(b.level)
	return l
}
