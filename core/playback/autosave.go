package playback

import (
	"context"
	"sync"

	"SelahFM/logger"
)

// saveWindow is the amount of continuous playback, in seconds, covered
// by one persisted save. The autosaver fires when the position crosses
// into a new window rather than on every tick.
const saveWindow = 10.0

// autosaver applies the progress save policy for one loaded item: at
// most one save per saveWindow of playback, exactly one completion
// save, and a best-effort save on explicit stop. Save failures are
// logged and swallowed — persistence never blocks playback.
type autosaver struct {
	store  ProgressStore
	userID int64
	itemID int64

	mu         sync.Mutex
	lastWindow int
	completed  bool
}

func newAutosaver(store ProgressStore, userID, itemID int64) *autosaver {
	return &autosaver{store: store, userID: userID, itemID: itemID}
}

func (s *autosaver) onTick(ctx context.Context, position float64) {
	if s.store == nil || s.userID == 0 {
		return
	}

	window := int(position / saveWindow)
	s.mu.Lock()
	if s.completed || window == s.lastWindow {
		s.mu.Unlock()
		return
	}
	s.lastWindow = window
	s.mu.Unlock()

	if err := s.store.Save(ctx, s.userID, s.itemID, position, false); err != nil {
		logger.Warn("progress autosave failed",
			logger.Int64("itemId", s.itemID),
			logger.Float64("position", position),
			logger.ErrorField(err),
		)
	}
}

// onComplete fires the terminal save: full position, completed true.
// Never skipped by the window debounce, never fired twice.
func (s *autosaver) onComplete(ctx context.Context, duration float64) {
	if s.store == nil || s.userID == 0 {
		return
	}

	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return
	}
	s.completed = true
	s.mu.Unlock()

	if err := s.store.Save(ctx, s.userID, s.itemID, duration, true); err != nil {
		logger.Warn("completion save failed",
			logger.Int64("itemId", s.itemID),
			logger.ErrorField(err),
		)
	}
}

// onStop saves the stop position so a later load can resume from it.
func (s *autosaver) onStop(ctx context.Context, position float64) {
	if s.store == nil || s.userID == 0 || position <= 0 {
		return
	}

	s.mu.Lock()
	done := s.completed
	s.mu.Unlock()
	if done {
		return
	}

	if err := s.store.Save(ctx, s.userID, s.itemID, position, false); err != nil {
		logger.Warn("stop save failed",
			logger.Int64("itemId", s.itemID),
			logger.Float64("position", position),
			logger.ErrorField(err),
		)
	}
}
