package handler

import (
	"net/http"

	"connecthub/internal/httputil"
	"connecthub/internal/service"
	"connecthub/internal/transport/http/middleware"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// UnreadCountResponse is the notification badge.
type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// List handles GET /notifications
// Returns the caller's notifications newest first with the unread count.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	resp, err := h.notificationService.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "list notifications", "Failed to get notifications")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// UnreadCount handles GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	count, err := h.notificationService.UnreadCount(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "unread count", "Failed to get unread count")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, UnreadCountResponse{UnreadCount: count})
}

// MarkAllAsRead handles POST /notifications/read-all
// Only the caller's notifications are touched.
func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.notificationService.MarkAllAsRead(r.Context(), userID); err != nil {
		writeServiceError(w, r, err, "mark all read", "Failed to mark notifications as read")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, UnreadCountResponse{UnreadCount: 0})
}
