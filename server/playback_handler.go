package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"SelahFM/core/playback"
	"SelahFM/logger"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// session resolves the caller's playback controller. Signed-in users
// get one session per account; guests get one per client ID and simply
// never persist progress.
func (h *APIHandler) session(r *http.Request) (*playback.Controller, error) {
	userID := optionalUserID(r.Context())
	if userID != 0 {
		return h.playbackManager.Session(userID, ""), nil
	}

	clientID := r.Header.Get("X-Client-ID")
	if clientID == "" {
		clientID = r.URL.Query().Get("clientId")
	}
	if clientID == "" {
		return nil, errors.New("anonymous playback requires an X-Client-ID header")
	}
	return h.playbackManager.Session(0, clientID), nil
}

// LoadTrackHandler loads a catalog item into the caller's session and
// starts playing from the saved position, if any.
func (h *APIHandler) LoadTrackHandler(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.session(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		ItemID int64 `json:"itemId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.audioRepo.GetAudioItemByID(req.ItemID)
	if err != nil {
		logger.Error("failed to load audio item for playback", logger.Int64("id", req.ItemID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to load audio item")
		return
	}
	if item == nil || !item.IsActive {
		respondError(w, http.StatusNotFound, "Audio item not found")
		return
	}

	if err := ctrl.Load(r.Context(), item); err != nil {
		if errors.Is(err, playback.ErrInvalidItem) {
			respondError(w, http.StatusUnprocessableEntity, "Audio item is not playable")
			return
		}
		logger.Error("failed to load playback session", logger.Int64("itemId", req.ItemID), logger.ErrorField(err))
		respondError(w, http.StatusBadGateway, "Failed to open media")
		return
	}

	respondJSON(w, http.StatusOK, ctrl.Snapshot())
}

// PlayPauseHandler toggles play/pause. With nothing loaded it is a
// silent no-op, mirroring a tap on an inert play button.
func (h *APIHandler) PlayPauseHandler(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.session(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctrl.PlayPause()
	respondJSON(w, http.StatusOK, ctrl.Snapshot())
}

// SeekHandler moves the playhead.
func (h *APIHandler) SeekHandler(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.session(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Position float64 `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := ctrl.SeekTo(req.Position); err != nil {
		if errors.Is(err, playback.ErrNoItem) {
			respondError(w, http.StatusConflict, "Nothing loaded")
			return
		}
		respondError(w, http.StatusInternalServerError, "Seek failed")
		return
	}
	respondJSON(w, http.StatusOK, ctrl.Snapshot())
}

// StopHandler tears the session down, saving the final position first.
func (h *APIHandler) StopHandler(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.session(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctrl.Stop()
	respondJSON(w, http.StatusOK, ctrl.Snapshot())
}

// PlaybackStateHandler returns the current snapshot without mutating
// anything.
func (h *APIHandler) PlaybackStateHandler(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.session(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, ctrl.Snapshot())
}

// PlaybackWebSocketHandler streams playback snapshots to the client
// until it disconnects.
func (h *APIHandler) PlaybackWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.session(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	snapshots, cancel := ctrl.Subscribe()
	defer cancel()

	// Reader goroutine: its only job is to notice the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Send the current state immediately so the client renders without
	// waiting for the first tick.
	if err := conn.WriteJSON(ctrl.Snapshot()); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		}
	}
}
