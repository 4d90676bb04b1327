package logger

import (
	"log/slog"
	"strings"
)

var Level = &level{lvl: &slog.LevelVar{}}

type level struct {
	lvl *slog.LevelVar
}

func (l *level) Set(level slog.Level) {
	l.lvl.Set(level)
}

// SetByName sets the level from its name. Unknown names are ignored and
// reported as false.
func (l *level) SetByName(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "err", "error":
		l.lvl.Set(slog.LevelError)
	case "warn", "warning":
		l.lvl.Set(slog.LevelWarn)
	case "info":
		l.lvl.Set(slog.LevelInfo)
	case "debug":
		l.lvl.Set(slog.LevelDebug)
	default:
		return false
	}
	return true
}
