package handler

import (
	"log/slog"
	"net/http"

	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/channel"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/model"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/store"
)

type NotificationHandler struct {
	events  *store.EventStore
	channel *channel.Channel
	logger  *slog.Logger
}

func NewNotificationHandler(events *store.EventStore, ch *channel.Channel, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{events: events, channel: ch, logger: logger}
}

type notificationList struct {
	Events      []model.NotificationEvent `json:"events"`
	UnreadCount int                       `json:"unread_count"`
}

// List handles GET /api/notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(0)
	if err != nil {
		h.logger.Error("list notifications", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list notifications"})
		return
	}
	unread, err := h.events.UnreadCount()
	if err != nil {
		h.logger.Error("count unread", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to count notifications"})
		return
	}
	if events == nil {
		events = []model.NotificationEvent{}
	}
	writeJSON(w, http.StatusOK, notificationList{Events: events, UnreadCount: unread})
}

// MarkRead handles PUT /api/notifications/{id}/read. The upstream flag is
// flipped first; on upstream failure the local flag stays unread and the
// user retries by reopening.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.channel.MarkRead(r.Context(), id); err != nil {
		h.logger.Warn("mark notification read", "id", id, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to mark notification read"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/notifications/{id}: hard delete after the
// user actions a notification, so it cannot re-surface.
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.channel.Delete(r.Context(), id); err != nil {
		h.logger.Warn("delete notification", "id", id, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to delete notification"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
