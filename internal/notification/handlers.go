// internal/notification/handlers.go

package notification

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/anyjobhub/qalbii/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetNotifications lists the caller's notifications, newest first
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	unreadOnly := r.URL.Query().Get("unread") == "true"

	response, err := h.service.List(r.Context(), userID, limit, offset, unreadOnly)
	if err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, response, http.StatusOK)
}

// GetUnreadCount returns the caller's unread notification count
func (h *Handler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	count, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, map[string]int{"unread_count": count}, http.StatusOK)
}

// MarkRead marks one notification as read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	notificationID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.ErrorResponse(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	if err := h.service.MarkRead(r.Context(), notificationID, userID); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.MessageResponse(w, "Notification marked as read", http.StatusOK)
}

// MarkAllRead marks every notification as read
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	if err := h.service.MarkAllRead(r.Context(), userID); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.MessageResponse(w, "All notifications marked as read", http.StatusOK)
}

// DeleteNotification deletes one notification
func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	notificationID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.ErrorResponse(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), notificationID, userID); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.MessageResponse(w, "Notification deleted", http.StatusOK)
}

// ClearNotifications deletes all of the caller's notifications
func (h *Handler) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	if err := h.service.ClearAll(r.Context(), userID); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.MessageResponse(w, "Notifications cleared", http.StatusOK)
}
