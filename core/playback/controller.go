package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SelahFM/logger"
	"SelahFM/model"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// State is the controller's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

var (
	// ErrNoItem is returned by operations that need a loaded item.
	ErrNoItem = errors.New("no item loaded")
	// ErrInvalidItem is returned by Load for malformed catalog rows.
	ErrInvalidItem = errors.New("invalid audio item")

	errNotReady = errors.New("media resource not ready")
)

// Resume readiness budget: up to 10 checks, 100ms apart. A resource
// that never reports ready within the budget loses its resume seek but
// the load itself still succeeds.
const (
	readyAttempts = 10
	readyInterval = 100 * time.Millisecond
)

// ProgressStore persists last-known playback positions. Save and Load
// must treat userID == 0 (unauthenticated) as a silent no-op.
type ProgressStore interface {
	Save(ctx context.Context, userID, itemID int64, positionSeconds float64, completed bool) error
	Load(ctx context.Context, userID, itemID int64) (*model.ProgressRecord, error)
}

// Controller owns at most one live media resource. It is constructed
// per session by the Manager and mutated only through its methods; all
// other components read its state via snapshots.
type Controller struct {
	engine Engine
	store  ProgressStore
	userID int64

	mu             sync.Mutex
	sessionID      string
	state          State
	item           *model.AudioItem
	res            Resource
	position       float64
	duration       float64
	playing        bool
	completionDone bool
	saver          *autosaver
	tickStop       chan struct{}

	subMu sync.Mutex
	subs  map[chan Snapshot]struct{}
}

// NewController creates a controller for one user session. userID may
// be 0 for anonymous playback; progress persistence then degrades to a
// no-op.
func NewController(engine Engine, store ProgressStore, userID int64) *Controller {
	return &Controller{
		engine:    engine,
		store:     store,
		userID:    userID,
		sessionID: uuid.NewString(),
		state:     StateIdle,
		subs:      make(map[chan Snapshot]struct{}),
	}
}

// Load opens the item's media. Any previously open resource is released
// first — the controller never holds two resources. If a progress
// record exists for this user and item, playback resumes from the saved
// position once the resource reports ready (bounded wait); otherwise it
// starts at zero. On failure the controller returns to idle.
func (c *Controller) Load(ctx context.Context, item *model.AudioItem) error {
	if item == nil {
		return ErrInvalidItem
	}
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}

	c.mu.Lock()
	c.releaseLocked()
	c.state = StateLoading
	c.mu.Unlock()

	res, err := c.engine.Open(ctx, item.MediaURI())
	if err != nil {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		return fmt.Errorf("open media for item %d: %w", item.ID, err)
	}

	c.mu.Lock()
	c.res = res
	c.item = item
	c.playing = false
	c.position = 0
	c.duration = res.Duration()
	if c.duration == 0 && item.Duration > 0 {
		c.duration = item.Duration
	}
	c.completionDone = false
	c.saver = newAutosaver(c.store, c.userID, item.ID)
	stop := make(chan struct{})
	c.tickStop = stop
	c.state = StateReady
	c.mu.Unlock()

	c.resumeFromSaved(ctx, res, item.ID)

	go c.consumeTicks(res, stop)

	logger.Info("media loaded",
		logger.String("session", c.sessionID),
		logger.Int64("itemId", item.ID),
		logger.String("title", item.Title),
	)
	return nil
}

// PlayPause toggles playing/paused. With nothing loaded it does nothing.
func (c *Controller) PlayPause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.res == nil {
		return
	}
	if c.playing {
		c.res.Pause()
		c.playing = false
		c.state = StateReady
	} else {
		c.res.Play()
		c.playing = true
		c.state = StatePlaying
	}
}

// SeekTo moves the position, clamped to [0, duration]. The playing flag
// is untouched.
func (c *Controller) SeekTo(seconds float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.res == nil {
		return ErrNoItem
	}
	if seconds < 0 {
		seconds = 0
	}
	if c.duration > 0 && seconds > c.duration {
		seconds = c.duration
	}
	c.res.Seek(seconds)
	c.position = seconds
	return nil
}

// Stop releases the media resource and resets the session to idle. The
// current position is saved best-effort so a later load can resume.
func (c *Controller) Stop() {
	c.mu.Lock()
	saver := c.saver
	pos := c.position
	c.releaseLocked()
	c.mu.Unlock()

	if saver != nil {
		saver.onStop(context.Background(), pos)
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the current playback state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers a snapshot receiver. The returned func
// unsubscribes; pending sends to a slow receiver are dropped rather
// than blocking the tick loop.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 16)
	c.subMu.Lock()
	c.subs[ch] = struct{}{}
	c.subMu.Unlock()

	cancel := func() {
		c.subMu.Lock()
		delete(c.subs, ch)
		c.subMu.Unlock()
	}
	return ch, cancel
}

// releaseLocked closes the open resource (if any) and resets session
// state. Callers hold c.mu.
func (c *Controller) releaseLocked() {
	if c.tickStop != nil {
		close(c.tickStop)
		c.tickStop = nil
	}
	if c.res != nil {
		if err := c.res.Close(); err != nil {
			logger.Warn("failed to close media resource",
				logger.String("session", c.sessionID),
				logger.ErrorField(err),
			)
		}
		c.res = nil
	}
	c.item = nil
	c.saver = nil
	c.position = 0
	c.duration = 0
	c.playing = false
	c.completionDone = false
	c.state = StateIdle
}

func (c *Controller) resumeFromSaved(ctx context.Context, res Resource, itemID int64) {
	if c.store == nil || c.userID == 0 {
		return
	}
	rec, err := c.store.Load(ctx, c.userID, itemID)
	if err != nil {
		logger.Warn("failed to load progress record",
			logger.Int64("itemId", itemID),
			logger.ErrorField(err),
		)
		return
	}
	if rec == nil || rec.PositionSeconds <= 0 {
		return
	}
	if !awaitReady(ctx, res) {
		// Non-fatal: playback proceeds from zero.
		logger.Warn("media resource never became ready, skipping resume",
			logger.Int64("itemId", itemID),
			logger.Float64("savedPosition", rec.PositionSeconds),
		)
		return
	}

	res.Seek(rec.PositionSeconds)
	c.mu.Lock()
	if c.res == res {
		c.position = rec.PositionSeconds
		if d := res.Duration(); d > 0 {
			c.duration = d
		}
	}
	c.mu.Unlock()

	logger.Debug("resumed from saved position",
		logger.Int64("itemId", itemID),
		logger.Float64("position", rec.PositionSeconds),
	)
}

// awaitReady waits for the resource to become ready within the retry
// budget. Resources that expose a ready channel are awaited on it; the
// constant-interval poll is the fallback.
func awaitReady(ctx context.Context, res Resource) bool {
	if res.Ready() {
		return true
	}
	if n, ok := res.(ReadyNotifier); ok {
		select {
		case <-n.ReadyCh():
			return true
		case <-time.After(readyAttempts * readyInterval):
			return false
		case <-ctx.Done():
			return false
		}
	}

	check := func() error {
		if res.Ready() {
			return nil
		}
		return errNotReady
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(readyInterval), readyAttempts-1),
		ctx,
	)
	return backoff.Retry(check, policy) == nil
}

func (c *Controller) consumeTicks(res Resource, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case tick, ok := <-res.Ticks():
			if !ok {
				return
			}
			c.handleTick(tick)
		}
	}
}

func (c *Controller) handleTick(tick Tick) {
	c.mu.Lock()
	if c.res == nil {
		// Stopped while the tick was in flight.
		c.mu.Unlock()
		return
	}

	if tick.Err != nil {
		snap := c.snapshotLocked()
		snap.Error = tick.Err.Error()
		c.mu.Unlock()
		logger.Error("media engine error",
			logger.String("session", c.sessionID),
			logger.ErrorField(tick.Err),
		)
		c.publish(snap)
		return
	}

	c.position = tick.Position
	if tick.Duration > 0 {
		c.duration = tick.Duration
	}

	finished := c.duration > 0 && c.position >= c.duration && !c.completionDone
	if finished {
		c.completionDone = true
		c.position = c.duration
		c.playing = false
		c.state = StateReady
	}
	snap := c.snapshotLocked()
	saver := c.saver
	duration := c.duration
	c.mu.Unlock()

	if saver != nil {
		if finished {
			saver.onComplete(context.Background(), duration)
		} else {
			saver.onTick(context.Background(), snap.Position)
		}
	}
	c.publish(snap)
}

func (c *Controller) snapshotLocked() Snapshot {
	var itemID int64
	if c.item != nil {
		itemID = c.item.ID
	}
	return Snapshot{
		SessionID: c.sessionID,
		ItemID:    itemID,
		Position:  c.position,
		Duration:  c.duration,
		Playing:   c.playing,
		State:     c.state.String(),
		At:        time.Now(),
	}
}

func (c *Controller) publish(snap Snapshot) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for ch := range c.subs {
		select {
		case ch <- snap:
		default:
			// slow subscriber, drop
		}
	}
}
