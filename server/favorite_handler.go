package server

import (
	"errors"
	"net/http"

	"SelahFM/core/engagement"
	"SelahFM/logger"
)

// ToggleAudioFavoriteHandler flips the favorite relation for an audio
// item and returns the confirmed value.
func (h *APIHandler) ToggleAudioFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	h.toggleFavorite(w, r, h.audioFavorites)
}

// ToggleDailyFavoriteHandler flips the favorite relation for a daily
// feed item.
func (h *APIHandler) ToggleDailyFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	h.toggleFavorite(w, r, h.dailyFavorites)
}

func (h *APIHandler) toggleFavorite(w http.ResponseWriter, r *http.Request, toggler *engagement.Toggler) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	itemID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	value, err := toggler.Toggle(r.Context(), userID, itemID)
	if err != nil {
		switch {
		case errors.Is(err, engagement.ErrSignInRequired):
			respondError(w, http.StatusUnauthorized, "Sign-in required")
		case errors.Is(err, engagement.ErrToggleInFlight):
			respondError(w, http.StatusConflict, "Toggle already in flight")
		default:
			logger.Error("favorite toggle failed",
				logger.Int64("userId", userID),
				logger.Int64("itemId", itemID),
				logger.ErrorField(err),
			)
			respondError(w, http.StatusInternalServerError, "Failed to toggle favorite")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"itemId": itemID, "value": value})
}

// GetAudioFavoriteStateHandler reports the toggle state for one audio item.
func (h *APIHandler) GetAudioFavoriteStateHandler(w http.ResponseWriter, r *http.Request) {
	h.favoriteState(w, r, h.audioFavorites)
}

// GetDailyFavoriteStateHandler reports the toggle state for one daily item.
func (h *APIHandler) GetDailyFavoriteStateHandler(w http.ResponseWriter, r *http.Request) {
	h.favoriteState(w, r, h.dailyFavorites)
}

func (h *APIHandler) favoriteState(w http.ResponseWriter, r *http.Request, toggler *engagement.Toggler) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	itemID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	state, err := toggler.StateOf(r.Context(), userID, itemID)
	if err != nil {
		logger.Error("failed to read favorite state", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to read favorite state")
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// ListAudioFavoritesHandler lists the user's favorited audio item IDs.
func (h *APIHandler) ListAudioFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	h.listFavorites(w, r, true)
}

// ListDailyFavoritesHandler lists the user's favorited daily item IDs.
func (h *APIHandler) ListDailyFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	h.listFavorites(w, r, false)
}

func (h *APIHandler) listFavorites(w http.ResponseWriter, r *http.Request, audio bool) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	repo := h.dailyFavRepo
	if audio {
		repo = h.audioFavRepo
	}
	ids, err := repo.ListItemIDs(r.Context(), userID)
	if err != nil {
		logger.Error("failed to list favorites", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list favorites")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"itemIds": ids})
}
