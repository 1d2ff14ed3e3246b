package server

import (
	"encoding/json"
	"net/http"
	"time"

	"SelahFM/cache"
	"SelahFM/logger"
	"SelahFM/model"
)

// GetTodayFeedHandler returns the devotional feed for today, or for the
// explicit ?date=YYYY-MM-DD. Served from Redis when possible.
func (h *APIHandler) GetTodayFeedHandler(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	if items, err := cache.GetDailyFeed(r.Context(), date); err != nil {
		logger.Warn("daily feed cache read failed", logger.ErrorField(err))
	} else if items != nil {
		respondJSON(w, http.StatusOK, items)
		return
	}

	items, err := h.dailyRepo.GetItemsForDate(date)
	if err != nil {
		logger.Error("failed to load daily feed", logger.String("date", date), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to load daily feed")
		return
	}

	cache.SetDailyFeed(r.Context(), date, items)
	respondJSON(w, http.StatusOK, items)
}

// GetDailyItemHandler returns one feed item.
func (h *APIHandler) GetDailyItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	item, err := h.dailyRepo.GetDailyItemByID(id)
	if err != nil {
		logger.Error("failed to load daily item", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to load daily item")
		return
	}
	if item == nil {
		respondError(w, http.StatusNotFound, "Daily item not found")
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// CreateDailyItemHandler schedules a feed item. Admin only.
func (h *APIHandler) CreateDailyItemHandler(w http.ResponseWriter, r *http.Request) {
	var item model.DailyItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validateDailyItem(&item); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.dailyRepo.CreateDailyItem(&item)
	if err != nil {
		logger.Error("failed to create daily item", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create daily item")
		return
	}
	item.ID = id

	cache.InvalidateDailyFeed(r.Context(), item.PublishOn)
	respondJSON(w, http.StatusCreated, item)
}

// UpdateDailyItemHandler updates a scheduled feed item. Admin only.
func (h *APIHandler) UpdateDailyItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	existing, err := h.dailyRepo.GetDailyItemByID(id)
	if err != nil {
		logger.Error("failed to load daily item", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to load daily item")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "Daily item not found")
		return
	}

	var item model.DailyItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	item.ID = id
	if err := validateDailyItem(&item); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.dailyRepo.UpdateDailyItem(&item); err != nil {
		logger.Error("failed to update daily item", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to update daily item")
		return
	}

	// The item may have moved to a different date; drop both feeds.
	cache.InvalidateDailyFeed(r.Context(), existing.PublishOn)
	if item.PublishOn != existing.PublishOn {
		cache.InvalidateDailyFeed(r.Context(), item.PublishOn)
	}
	respondJSON(w, http.StatusOK, item)
}

// DeleteDailyItemHandler removes a scheduled feed item. Admin only.
func (h *APIHandler) DeleteDailyItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	existing, err := h.dailyRepo.GetDailyItemByID(id)
	if err != nil {
		logger.Error("failed to load daily item", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to load daily item")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "Daily item not found")
		return
	}

	if err := h.dailyRepo.DeleteDailyItem(id); err != nil {
		logger.Error("failed to delete daily item", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete daily item")
		return
	}

	cache.InvalidateDailyFeed(r.Context(), existing.PublishOn)
	respondJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func validateDailyItem(item *model.DailyItem) error {
	if _, err := time.Parse("2006-01-02", item.PublishOn); err != nil {
		return errInvalidDaily("publishOn must be YYYY-MM-DD")
	}
	switch item.Kind {
	case model.DailyKindVerse, model.DailyKindQuote, model.DailyKindPrayer:
	default:
		return errInvalidDaily("kind must be verse, quote or prayer")
	}
	if item.Title == "" || item.Body == "" {
		return errInvalidDaily("title and body are required")
	}
	return nil
}

type errInvalidDaily string

func (e errInvalidDaily) Error() string { return string(e) }
