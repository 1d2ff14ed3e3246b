package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"SelahFM/logger"
	"SelahFM/model"

	"gorm.io/gorm"
)

// CreateJournalEntryHandler creates a journal entry and advances the
// user's daily streak.
func (h *APIHandler) CreateJournalEntryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var entry model.JournalEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(entry.Title) == "" && strings.TrimSpace(entry.Content) == "" {
		respondError(w, http.StatusBadRequest, "Entry must have a title or content")
		return
	}
	entry.UserID = userID

	if err := h.journalRepo.Create(r.Context(), &entry); err != nil {
		logger.Error("failed to create journal entry", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create journal entry")
		return
	}

	// Best effort: a failed streak update never fails the entry.
	streak, err := h.streakTracker.Touch(r.Context(), userID, time.Now())
	if err != nil {
		logger.Warn("failed to advance streak", logger.Int64("userId", userID), logger.ErrorField(err))
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"entry":  entry,
		"streak": streak,
	})
}

// ListJournalEntriesHandler lists the user's entries, newest first.
func (h *APIHandler) ListJournalEntriesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	entries, err := h.journalRepo.ListByUser(r.Context(), userID)
	if err != nil {
		logger.Error("failed to list journal entries", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list journal entries")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// GetJournalEntryHandler returns one of the user's entries.
func (h *APIHandler) GetJournalEntryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid entry ID")
		return
	}

	entry, err := h.journalRepo.GetByID(r.Context(), userID, id)
	if err != nil {
		logger.Error("failed to load journal entry", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to load journal entry")
		return
	}
	if entry == nil {
		respondError(w, http.StatusNotFound, "Journal entry not found")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// UpdateJournalEntryHandler updates one of the user's entries.
func (h *APIHandler) UpdateJournalEntryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid entry ID")
		return
	}

	var entry model.JournalEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	entry.ID = id
	entry.UserID = userID

	if err := h.journalRepo.Update(r.Context(), &entry); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Journal entry not found")
			return
		}
		logger.Error("failed to update journal entry", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to update journal entry")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// DeleteJournalEntryHandler deletes one of the user's entries.
func (h *APIHandler) DeleteJournalEntryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid entry ID")
		return
	}

	if err := h.journalRepo.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Journal entry not found")
			return
		}
		logger.Error("failed to delete journal entry", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete journal entry")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// GetStreakHandler returns the user's current streak.
func (h *APIHandler) GetStreakHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	streak, err := h.streakTracker.Current(r.Context(), userID, time.Now())
	if err != nil {
		logger.Error("failed to load streak", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to load streak")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"streak": streak})
}
