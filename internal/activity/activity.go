package activity

import (
	"fmt"
	"log/slog"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/store"
)

// Logger appends human-readable event lines. Appends are fire-and-forget: a
// failed write is logged and swallowed so it can never block the operation
// that produced the event.
type Logger struct {
	store  *store.ActivityStore
	logger *slog.Logger
}

func NewLogger(s *store.ActivityStore, logger *slog.Logger) *Logger {
	return &Logger{store: s, logger: logger}
}

// Record appends an event line for a child.
func (l *Logger) Record(childID int64, format string, args ...any) {
	l.append(&childID, fmt.Sprintf(format, args...))
}

// RecordSystem appends an event line not tied to any child.
func (l *Logger) RecordSystem(format string, args ...any) {
	l.append(nil, fmt.Sprintf(format, args...))
}

func (l *Logger) append(childID *int64, msg string) {
	if err := l.store.Append(childID, msg); err != nil {
		l.logger.Warn("activity append failed", "error", err, "message", msg)
	}
}

// Recent returns the newest entries.
func (l *Logger) Recent(limit int) ([]model.ActivityEntry, error) {
	return l.store.ListRecent(limit)
}
