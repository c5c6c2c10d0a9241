package http

import (
	"net/http"
	"strconv"

	"agrirent-backend/internal/service"
)

// NotificationHandler exposes in-app notifications over REST.
type NotificationHandler struct {
	notifications service.NotificationService
}

func NewNotificationHandler(notifications service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	page := int32(1)
	if s := r.URL.Query().Get("page"); s != "" {
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil || v < 1 {
			respondBadRequest(w, "invalid page")
			return
		}
		page = int32(v)
	}
	pageSize := int32(20)
	if s := r.URL.Query().Get("page_size"); s != "" {
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil || v < 1 {
			respondBadRequest(w, "invalid page_size")
			return
		}
		pageSize = int32(v)
	}

	notes, total, err := h.notifications.GetNotifications(r.Context(), actorFrom(r).ID, page, pageSize)
	if err != nil {
		respondError(w, err)
		return
	}
	respondList(w, http.StatusOK, notes, int(total))
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, "invalid notification id")
		return
	}

	if err := h.notifications.MarkAsRead(r.Context(), actorFrom(r).ID, id); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "notification marked as read")
}
