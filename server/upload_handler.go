package server

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"SelahFM/logger"
	"SelahFM/model"
	"SelahFM/storage"

	"github.com/google/uuid"
)

// UploadAudioHandler stores an uploaded audio file in the bucket and
// registers the catalog row in one step. Admin only.
// Expected multipart form fields:
// - audioFile: the audio file
// - title: item title
// - speaker, category: optional metadata
// - duration: optional length in seconds
// - premium: optional "true"/"false"
func (h *APIHandler) UploadAudioHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse multipart form: %v", err))
		return
	}

	audioFile, header, err := r.FormFile("audioFile")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing 'audioFile' in form")
		return
	}
	defer audioFile.Close()

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		respondError(w, http.StatusBadRequest, "Missing 'title' in form")
		return
	}

	duration, _ := strconv.ParseFloat(r.FormValue("duration"), 64)
	if duration < 0 {
		duration = 0
	}
	premium, _ := strconv.ParseBool(r.FormValue("premium"))

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		ext = ".mp3"
	}
	objectKey := fmt.Sprintf("audio/%s%s", uuid.NewString(), ext)

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}

	if err := storage.UploadAudio(r.Context(), objectKey, audioFile, header.Size, contentType, duration); err != nil {
		logger.Error("failed to upload audio object", logger.String("key", objectKey), logger.ErrorField(err))
		respondError(w, http.StatusBadGateway, "Failed to store audio file")
		return
	}

	item := &model.AudioItem{
		Title:     title,
		Speaker:   r.FormValue("speaker"),
		Category:  r.FormValue("category"),
		ObjectKey: objectKey,
		Duration:  duration,
		IsPremium: premium,
		IsActive:  true,
	}
	id, err := h.audioRepo.CreateAudioItem(item)
	if err != nil {
		logger.Error("failed to register uploaded audio", logger.String("key", objectKey), logger.ErrorField(err))
		// Don't leave an orphaned object behind.
		if rmErr := storage.RemoveObject(r.Context(), objectKey); rmErr != nil {
			logger.Warn("failed to clean up orphaned object", logger.String("key", objectKey), logger.ErrorField(rmErr))
		}
		respondError(w, http.StatusInternalServerError, "Failed to register audio item")
		return
	}
	item.ID = id

	logger.Info("audio uploaded",
		logger.Int64("itemId", id),
		logger.String("objectKey", objectKey),
		logger.String("title", title),
	)
	respondJSON(w, http.StatusCreated, item)
}
