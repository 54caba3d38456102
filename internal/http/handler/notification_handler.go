package handler

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/notify"
)

// NotificationHandler serves the transient toast feed.
type NotificationHandler struct {
	feed   *notify.Feed
	logger *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler instance
func NewNotificationHandler(feed *notify.Feed, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{feed: feed, logger: logger}
}

// List returns the newest notifications, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	respondJSON(w, http.StatusOK, h.feed.Recent(limit))
}

// Clear empties the feed.
func (h *NotificationHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.feed.Clear()
	respondJSON(w, http.StatusNoContent, nil)
}
