package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"sladeshProAPI/middleware"
	"sladeshProAPI/services"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
	channelService      *services.ChannelService
}

func NewNotificationHandler(notificationService *services.NotificationService, channelService *services.ChannelService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		channelService:      channelService,
	}
}

// requireChannelMember resolves the channel from the route and gates the
// request on membership. Returns the channel id, or "" after writing the
// error response.
func (h *NotificationHandler) requireChannelMember(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, string) {
	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return "", ""
	}

	channelID := mux.Vars(r)["channelId"]
	if err := h.channelService.RequireMember(ctx, channelID, clerkID); err != nil {
		respondWithServiceError(w, err)
		return "", ""
	}
	return channelID, clerkID
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	channelID, _ := h.requireChannelMember(ctx, w, r)
	if channelID == "" {
		return
	}

	notifications, err := h.notificationService.List(ctx, channelID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, notifications)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	channelID, _ := h.requireChannelMember(ctx, w, r)
	if channelID == "" {
		return
	}

	count, err := h.notificationService.UnreadCount(ctx, channelID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *NotificationHandler) MarkAllWatched(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	channelID, _ := h.requireChannelMember(ctx, w, r)
	if channelID == "" {
		return
	}

	if err := h.notificationService.MarkAllWatched(ctx, channelID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Notifications marked as watched"})
}

func (h *NotificationHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	channelID, _ := h.requireChannelMember(ctx, w, r)
	if channelID == "" {
		return
	}

	if err := h.notificationService.ClearAll(ctx, channelID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Notifications cleared"})
}
