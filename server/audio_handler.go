package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"SelahFM/logger"
	"SelahFM/model"

	"github.com/gorilla/mux"
)

// GetAudioItemsHandler lists the active catalog, optionally filtered by
// category.
func (h *APIHandler) GetAudioItemsHandler(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	items, err := h.audioRepo.GetActiveAudioItems(category)
	if err != nil {
		logger.Error("failed to list audio items", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list audio items")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// GetAudioItemHandler returns one catalog item.
func (h *APIHandler) GetAudioItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	item, err := h.audioRepo.GetAudioItemByID(id)
	if err != nil {
		logger.Error("failed to load audio item", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to load audio item")
		return
	}
	if item == nil {
		respondError(w, http.StatusNotFound, "Audio item not found")
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// CreateAudioItemHandler registers a catalog item. Admin only.
func (h *APIHandler) CreateAudioItemHandler(w http.ResponseWriter, r *http.Request) {
	var item model.AudioItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := item.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid audio item: "+err.Error())
		return
	}

	id, err := h.audioRepo.CreateAudioItem(&item)
	if err != nil {
		logger.Error("failed to create audio item", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create audio item")
		return
	}
	item.ID = id
	respondJSON(w, http.StatusCreated, item)
}

// UpdateAudioItemHandler updates a catalog item. Admin only.
func (h *APIHandler) UpdateAudioItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var item model.AudioItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	item.ID = id
	if err := item.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid audio item: "+err.Error())
		return
	}

	if err := h.audioRepo.UpdateAudioItem(&item); err != nil {
		logger.Error("failed to update audio item", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to update audio item")
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// SetAudioItemActiveHandler flips an item's visibility. Admin only.
func (h *APIHandler) SetAudioItemActiveHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.audioRepo.SetAudioItemActive(id, req.Active); err != nil {
		logger.Error("failed to set audio item active", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to update audio item")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "active": req.Active})
}

// RecentlyPlayedHandler lists the user's recent progress records for
// the continue-listening shelf.
func (h *APIHandler) RecentlyPlayedHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.progressRepo.RecentlyPlayed(r.Context(), userID, limit)
	if err != nil {
		logger.Error("failed to list recently played", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list recently played")
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}
