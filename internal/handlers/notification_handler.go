package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gymbuddy/gymbuddy-backend/internal/services"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// NotificationHandler handles HTTP requests for notifications.
type NotificationHandler struct {
	Service *services.NotificationService
}

// NewNotificationHandler creates a new instance of NotificationHandler.
func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: service}
}

// ListHandler returns the caller's notifications with the unread total.
func (h *NotificationHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	list, err := h.Service.GetNotifications(r.Context(), accountID, unreadOnly, limit)
	if err != nil {
		log.WithError(err).Error("Failed to fetch notifications")
		http.Error(w, "Failed to fetch notifications", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// UnreadCountHandler returns only the unread total.
func (h *NotificationHandler) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	count, err := h.Service.GetUnreadCount(r.Context(), accountID)
	if err != nil {
		log.WithError(err).Error("Failed to count unread notifications")
		http.Error(w, "Failed to count notifications", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"unread_count": count})
}

// GetHandler fetches one notification.
func (h *NotificationHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	notificationID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	notification, err := h.Service.GetNotification(r.Context(), notificationID, accountID)
	if err != nil {
		http.Error(w, "Notification not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, notification)
}

// UpdateHandler flips one notification's read flag.
func (h *NotificationHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	notificationID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var req struct {
		IsRead bool `json:"is_read"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := h.Service.MarkRead(r.Context(), notificationID, accountID, req.IsRead); err != nil {
		log.WithError(err).Warn("Failed to update notification")
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// MarkAllReadHandler marks everything read.
func (h *NotificationHandler) MarkAllReadHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	updated, err := h.Service.MarkAllRead(r.Context(), accountID)
	if err != nil {
		log.WithError(err).Error("Failed to mark notifications read")
		http.Error(w, "Failed to mark notifications read", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

// DeleteHandler removes one notification.
func (h *NotificationHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	notificationID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	if err := h.Service.DeleteNotification(r.Context(), notificationID, accountID); err != nil {
		log.WithError(err).Warn("Failed to delete notification")
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// DeleteAllHandler clears the caller's notifications.
func (h *NotificationHandler) DeleteAllHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	deleted, err := h.Service.DeleteAll(r.Context(), accountID)
	if err != nil {
		log.WithError(err).Error("Failed to clear notifications")
		http.Error(w, "Failed to clear notifications", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
