// Package notify keeps the transient toast feed of the dashboard.
// Notifications are advisory UI messages only; they carry no retry or
// acknowledgement semantics and the feed is bounded, oldest dropped
// first.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Severity of a notification.
const (
	SeveritySuccess = "success"
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Notification is one toast entry.
type Notification struct {
	ID        string    `json:"id"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier is the publishing side handed to the sync layer.
type Notifier interface {
	Success(message string)
	Error(message string)
	Warning(message string)
}

const defaultFeedSize = 50

// Feed is a bounded in-memory notification feed.
type Feed struct {
	mu      sync.Mutex
	logger  *zap.Logger
	entries []Notification
	max     int
}

// NewFeed creates a feed keeping at most the default number of entries.
func NewFeed(logger *zap.Logger) *Feed {
	return &Feed{logger: logger, max: defaultFeedSize}
}

// Success publishes a success toast.
func (f *Feed) Success(message string) { f.publish(SeveritySuccess, message) }

// Error publishes an error toast.
func (f *Feed) Error(message string) { f.publish(SeverityError, message) }

// Warning publishes a warning toast.
func (f *Feed) Warning(message string) { f.publish(SeverityWarning, message) }

func (f *Feed) publish(severity, message string) {
	n := Notification{
		ID:        uuid.New().String(),
		Severity:  severity,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}

	f.logger.Info("notification published",
		zap.String("severity", severity),
		zap.String("message", message),
	)

	f.mu.Lock()
	f.entries = append(f.entries, n)
	if len(f.entries) > f.max {
		f.entries = f.entries[len(f.entries)-f.max:]
	}
	f.mu.Unlock()
}

// Recent returns the newest entries, newest first, up to limit.
func (f *Feed) Recent(limit int) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	if limit <= 0 || limit > len(f.entries) {
		limit = len(f.entries)
	}
	out := make([]Notification, 0, limit)
	for i := len(f.entries) - 1; i >= len(f.entries)-limit; i-- {
		out = append(out, f.entries[i])
	}
	return out
}

// Clear empties the feed.
func (f *Feed) Clear() {
	f.mu.Lock()
	f.entries = nil
	f.mu.Unlock()
}
