package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"SelahFM/core/engagement"
	"SelahFM/logger"
	"SelahFM/model"

	"gorm.io/gorm"
)

// ListPrayerBoardHandler lists community prayer requests, newest first.
func (h *APIHandler) ListPrayerBoardHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	reqs, err := h.prayerRepo.ListBoard(r.Context(), limit, offset)
	if err != nil {
		logger.Error("failed to list prayer board", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list prayer board")
		return
	}

	// Anonymous requests hide the author from everyone but the author.
	viewerID := optionalUserID(r.Context())
	for _, req := range reqs {
		if req.Anonymous && req.UserID != viewerID {
			req.UserID = 0
		}
	}
	respondJSON(w, http.StatusOK, reqs)
}

// ListMyPrayersHandler lists the caller's own requests, anonymous ones
// included.
func (h *APIHandler) ListMyPrayersHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	reqs, err := h.prayerRepo.ListByUser(r.Context(), userID)
	if err != nil {
		logger.Error("failed to list prayer requests", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list prayer requests")
		return
	}
	respondJSON(w, http.StatusOK, reqs)
}

// CreatePrayerRequestHandler posts a new prayer request.
func (h *APIHandler) CreatePrayerRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req model.PrayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		respondError(w, http.StatusBadRequest, "Title and content are required")
		return
	}
	req.UserID = userID
	req.PrayCount = 0
	req.Answered = false

	if err := h.prayerRepo.Create(r.Context(), &req); err != nil {
		logger.Error("failed to create prayer request", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create prayer request")
		return
	}
	respondJSON(w, http.StatusCreated, req)
}

// GetPrayerRequestHandler returns one request.
func (h *APIHandler) GetPrayerRequestHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	req, err := h.prayerRepo.GetByID(r.Context(), id)
	if err != nil {
		logger.Error("failed to load prayer request", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to load prayer request")
		return
	}
	if req == nil {
		respondError(w, http.StatusNotFound, "Prayer request not found")
		return
	}
	if req.Anonymous && req.UserID != optionalUserID(r.Context()) {
		req.UserID = 0
	}
	respondJSON(w, http.StatusOK, req)
}

// UpdatePrayerRequestHandler edits the caller's own request.
func (h *APIHandler) UpdatePrayerRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	var req model.PrayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.ID = id
	req.UserID = userID

	if err := h.prayerRepo.Update(r.Context(), &req); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Prayer request not found")
			return
		}
		logger.Error("failed to update prayer request", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to update prayer request")
		return
	}
	respondJSON(w, http.StatusOK, req)
}

// MarkPrayerAnsweredHandler flips the answered flag on the caller's
// own request.
func (h *APIHandler) MarkPrayerAnsweredHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	var body struct {
		Answered bool `json:"answered"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.prayerRepo.MarkAnswered(r.Context(), userID, id, body.Answered); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Prayer request not found")
			return
		}
		logger.Error("failed to mark prayer answered", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to update prayer request")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "answered": body.Answered})
}

// DeletePrayerRequestHandler removes the caller's own request.
func (h *APIHandler) DeletePrayerRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	if err := h.prayerRepo.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Prayer request not found")
			return
		}
		logger.Error("failed to delete prayer request", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete prayer request")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// PrayHandler records a one-time prayed event and returns the new
// count. Repeats are 409s and change nothing.
func (h *APIHandler) PrayHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	count, err := h.prayProtocol.Pray(r.Context(), userID, id)
	if err != nil {
		switch {
		case errors.Is(err, engagement.ErrSignInRequired):
			respondError(w, http.StatusUnauthorized, "Sign-in required")
		case errors.Is(err, engagement.ErrAlreadyPrayed):
			respondError(w, http.StatusConflict, "Already prayed for this request")
		case errors.Is(err, gorm.ErrRecordNotFound):
			respondError(w, http.StatusNotFound, "Prayer request not found")
		default:
			logger.Error("failed to record prayer",
				logger.Int64("userId", userID),
				logger.Int64("prayerId", id),
				logger.ErrorField(err),
			)
			respondError(w, http.StatusInternalServerError, "Failed to record prayer")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "prayCount": count})
}
