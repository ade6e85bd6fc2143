package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"sladeshProAPI/internal/geo"
	"sladeshProAPI/internal/types/channel"
	"sladeshProAPI/middleware"
	"sladeshProAPI/services"
)

// Markers closer than this are merged into one map pin.
const mapClusterRadiusMeters = 5.0

type ChannelHandler struct {
	channelService *services.ChannelService
	checkInService *services.CheckInService
}

func NewChannelHandler(channelService *services.ChannelService, checkInService *services.CheckInService) *ChannelHandler {
	return &ChannelHandler{
		channelService: channelService,
		checkInService: checkInService,
	}
}

func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	channels, err := h.channelService.ListForUser(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, channels)
}

func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req channel.CreateChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ch, err := h.channelService.Create(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, ch)
}

func (h *ChannelHandler) Join(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req channel.JoinChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccessCode == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ch, err := h.channelService.JoinByAccessCode(ctx, clerkID, req.AccessCode)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ch)
}

// Leaderboard ranks the channel's checked-in members by total drinks.
func (h *ChannelHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	channelID := mux.Vars(r)["channelId"]
	board, err := h.checkInService.ChannelLeaderboard(ctx, channelID, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}

// Map returns the checked-in members' positions grouped into map markers.
// Users within a few meters of each other collapse into one marker.
func (h *ChannelHandler) Map(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	channelID := mux.Vars(r)["channelId"]
	if err := h.channelService.RequireMember(ctx, channelID, clerkID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	points, err := h.channelService.CheckedInMemberLocations(ctx, channelID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"markers": geo.Cluster(points, mapClusterRadiusMeters),
	})
}
