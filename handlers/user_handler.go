package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"sladeshProAPI/internal/geo"
	"sladeshProAPI/internal/store"
	"sladeshProAPI/internal/types/sladesh"
	"sladeshProAPI/internal/types/user"
	"sladeshProAPI/middleware"
	"sladeshProAPI/services"
	"sladeshProAPI/utils"
)

type UserHandler struct {
	userService    *services.UserService
	checkInService *services.CheckInService
}

func NewUserHandler(userService *services.UserService, checkInService *services.CheckInService) *UserHandler {
	return &UserHandler{
		userService:    userService,
		checkInService: checkInService,
	}
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	u, err := h.userService.EnsureUser(ctx, clerkID, r.URL.Query().Get("username"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req user.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.userService.UpdateProfile(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req user.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.userService.RegisterDeviceToken(ctx, clerkID, req.Token); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Device registered successfully"})
}

type checkInRequest struct {
	ChannelID string     `json:"channelId"`
	Location  *geo.Point `json:"location"`
}

func (h *UserHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChannelID == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.checkInService.CheckIn(ctx, clerkID, req.ChannelID, req.Location); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "You are now checked in!"})
}

type drinkRequest struct {
	Category string     `json:"category"`
	Subtype  string     `json:"subtype"`
	Location *geo.Point `json:"location,omitempty"`
}

func (h *UserHandler) AddDrink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req drinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !utils.ValidDrink(req.Category, req.Subtype) {
		respondWithError(w, http.StatusBadRequest, "Unknown drink category or subtype")
		return
	}

	newTotal, err := h.checkInService.AddDrink(ctx, clerkID, req.Category, req.Subtype, req.Location)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"totalDrinks": newTotal})
}

func (h *UserHandler) SubtractDrink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req drinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !utils.ValidDrink(req.Category, req.Subtype) {
		respondWithError(w, http.StatusBadRequest, "Unknown drink category or subtype")
		return
	}

	newTotal, err := h.checkInService.SubtractDrink(ctx, clerkID, req.Category, req.Subtype)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"totalDrinks": newTotal})
}

func (h *UserHandler) ResetDrinks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.checkInService.ResetAll(ctx, clerkID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Drinks reset"})
}

// GetDrinkCatalog serves the category/subtype list the client renders.
func (h *UserHandler) GetDrinkCatalog(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, utils.DrinkCategories)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal JSON response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps domain errors onto HTTP statuses.
func respondWithServiceError(w http.ResponseWriter, err error) {
	var cooldown *sladesh.CooldownActiveError
	switch {
	case errors.As(err, &cooldown):
		respondWithJSON(w, http.StatusTooManyRequests, map[string]string{
			"error":         "Sladesh limit reached",
			"nextAllowedAt": cooldown.NextAllowedAt.Format(time.RFC3339),
		})
	case errors.Is(err, services.ErrNotChannelMember):
		respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrAlreadyCheckedIn):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrDailyCommentLimit):
		respondWithError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, store.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, err.Error())
	}
}
