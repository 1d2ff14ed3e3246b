package server

import (
	"mime"
	"net/http"
	"path/filepath"

	"SelahFM/logger"
	"SelahFM/storage"

	"github.com/gorilla/mux"
)

// MediaHandler streams an audio object from the bucket. minio.Object
// seeks, so http.ServeContent handles Range requests for scrubbing.
func (h *APIHandler) MediaHandler(w http.ResponseWriter, r *http.Request) {
	objectKey := mux.Vars(r)["key"]
	if objectKey == "" {
		respondError(w, http.StatusBadRequest, "Missing object key")
		return
	}

	// Deactivated catalog items are not streamable even with a direct key.
	item, err := h.audioRepo.GetAudioItemByObjectKey(objectKey)
	if err != nil {
		logger.Error("failed to check catalog row for media", logger.String("key", objectKey), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to serve media")
		return
	}
	if item != nil && !item.IsActive {
		respondError(w, http.StatusNotFound, "Media not found")
		return
	}

	info, err := storage.StatObject(r.Context(), objectKey)
	if err != nil {
		respondError(w, http.StatusNotFound, "Media not found")
		return
	}

	object, err := storage.GetObject(r.Context(), objectKey)
	if err != nil {
		logger.Error("failed to open media object", logger.String("key", objectKey), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to open media")
		return
	}
	defer object.Close()

	contentType := info.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(objectKey)); byExt != "" {
			contentType = byExt
		} else {
			contentType = "audio/mpeg"
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	http.ServeContent(w, r, filepath.Base(objectKey), info.LastModified, object)
}
