package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"sladeshProAPI/middleware"
	"sladeshProAPI/services"
)

type SladeshHandler struct {
	sladeshService *services.SladeshService
	userService    *services.UserService
}

func NewSladeshHandler(sladeshService *services.SladeshService, userService *services.UserService) *SladeshHandler {
	return &SladeshHandler{
		sladeshService: sladeshService,
		userService:    userService,
	}
}

// CanSend tells the client whether the cooldown has elapsed, without side
// effects. Send re-validates regardless.
func (h *SladeshHandler) CanSend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	canSend, err := h.sladeshService.CanSend(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"canSend": canSend})
}

func (h *SladeshHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req services.SendSladeshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReceiverID == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sender, err := h.userService.GetUser(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	req.SenderID = clerkID
	req.SenderName = sender.Username

	report, err := h.sladeshService.Send(ctx, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, report)
}

type completeSladeshRequest struct {
	SladeshID string `json:"sladeshId"`
	SenderID  string `json:"senderId"`
}

// Complete marks a received challenge done on both mirrors.
func (h *SladeshHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req completeSladeshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SladeshID == "" || req.SenderID == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.sladeshService.Complete(ctx, req.SladeshID, clerkID, req.SenderID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Sladesh completed"})
}

func (h *SladeshHandler) ListReceived(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	channelID := r.URL.Query().Get("channelId")
	if channelID == "" {
		respondWithError(w, http.StatusBadRequest, "channelId is required")
		return
	}

	items, err := h.sladeshService.ListReceived(ctx, clerkID, channelID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, items)
}

func (h *SladeshHandler) ListSent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	channelID := r.URL.Query().Get("channelId")
	if channelID == "" {
		respondWithError(w, http.StatusBadRequest, "channelId is required")
		return
	}

	items, err := h.sladeshService.ListSent(ctx, clerkID, channelID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, items)
}

// Uncompleted returns the oldest pending challenge, or null when the user has
// none. The client calls this at session start.
func (h *SladeshHandler) Uncompleted(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	item, err := h.sladeshService.HasUncompleted(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"sladesh": item})
}
