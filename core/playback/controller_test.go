package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"SelahFM/model"
)

// fakeResource is a hand-driven media resource for tests.
type fakeResource struct {
	mu       sync.Mutex
	playing  bool
	position float64
	duration float64
	ready    bool
	closed   bool
	ticks    chan Tick
}

func newFakeResource(duration float64, ready bool) *fakeResource {
	return &fakeResource{
		duration: duration,
		ready:    ready,
		ticks:    make(chan Tick, 100),
	}
}

func (r *fakeResource) Play()  { r.mu.Lock(); r.playing = true; r.mu.Unlock() }
func (r *fakeResource) Pause() { r.mu.Lock(); r.playing = false; r.mu.Unlock() }

func (r *fakeResource) Seek(seconds float64) {
	r.mu.Lock()
	r.position = seconds
	r.mu.Unlock()
}

func (r *fakeResource) Position() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

func (r *fakeResource) Duration() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.duration
}

func (r *fakeResource) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

func (r *fakeResource) Ticks() <-chan Tick { return r.ticks }

func (r *fakeResource) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeResource) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// emit pushes a tick as the media engine would.
func (r *fakeResource) emit(position, duration float64) {
	r.ticks <- Tick{Position: position, Duration: duration}
}

// fakeEngine hands out fakeResources and tracks how many are open at
// once.
type fakeEngine struct {
	mu        sync.Mutex
	resources []*fakeResource
	nextReady bool
	duration  float64
	openErr   error
	maxOpen   int
}

func newFakeEngine(duration float64) *fakeEngine {
	return &fakeEngine{duration: duration, nextReady: true}
}

func (e *fakeEngine) Open(ctx context.Context, uri string) (Resource, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.openErr != nil {
		return nil, e.openErr
	}
	res := newFakeResource(e.duration, e.nextReady)
	e.resources = append(e.resources, res)

	open := 0
	for _, r := range e.resources {
		if !r.isClosed() {
			open++
		}
	}
	if open > e.maxOpen {
		e.maxOpen = open
	}
	return res, nil
}

func (e *fakeEngine) last() *fakeResource {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.resources) == 0 {
		return nil
	}
	return e.resources[len(e.resources)-1]
}

// fakeStore records progress saves.
type savedProgress struct {
	userID    int64
	itemID    int64
	position  float64
	completed bool
}

type fakeStore struct {
	mu      sync.Mutex
	records map[int64]*model.ProgressRecord // by item ID, single test user
	saves   []savedProgress
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[int64]*model.ProgressRecord)}
}

func (s *fakeStore) Save(ctx context.Context, userID, itemID int64, position float64, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves = append(s.saves, savedProgress{userID, itemID, position, completed})
	s.records[itemID] = &model.ProgressRecord{
		UserID:          userID,
		AudioItemID:     itemID,
		PositionSeconds: position,
		Completed:       completed,
	}
	return nil
}

func (s *fakeStore) Load(ctx context.Context, userID, itemID int64) (*model.ProgressRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[itemID], nil
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

func (s *fakeStore) allSaves() []savedProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]savedProgress, len(s.saves))
	copy(out, s.saves)
	return out
}

func testItem(id int64, duration float64) *model.AudioItem {
	return &model.AudioItem{
		ID:        id,
		Title:     "Morning Devotional",
		ObjectKey: "audio/morning.mp3",
		Duration:  duration,
		IsActive:  true,
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestLoadReleasesPreviousResource(t *testing.T) {
	engine := newFakeEngine(60)
	c := NewController(engine, newFakeStore(), 1)

	for i, item := range []*model.AudioItem{testItem(1, 60), testItem(2, 60), testItem(3, 60)} {
		if err := c.Load(context.Background(), item); err != nil {
			t.Fatalf("load %d failed: %v", i, err)
		}
	}

	if engine.maxOpen != 1 {
		t.Errorf("expected at most 1 open resource, saw %d", engine.maxOpen)
	}
	for i, r := range engine.resources[:2] {
		if !r.isClosed() {
			t.Errorf("resource %d not released before the next load", i)
		}
	}
	if engine.last().isClosed() {
		t.Error("current resource should still be open")
	}
}

func TestLoadFailureReturnsToIdle(t *testing.T) {
	engine := newFakeEngine(60)
	engine.openErr = errors.New("bad uri")
	c := NewController(engine, newFakeStore(), 1)

	if err := c.Load(context.Background(), testItem(1, 60)); err == nil {
		t.Fatal("expected load error")
	}
	if got := c.State(); got != StateIdle {
		t.Errorf("expected idle after failed load, got %v", got)
	}
}

func TestLoadRejectsMalformedItem(t *testing.T) {
	c := NewController(newFakeEngine(60), newFakeStore(), 1)

	bad := testItem(1, 60)
	bad.ObjectKey = ""
	if err := c.Load(context.Background(), bad); !errors.Is(err, ErrInvalidItem) {
		t.Errorf("expected ErrInvalidItem, got %v", err)
	}
	if err := c.Load(context.Background(), nil); !errors.Is(err, ErrInvalidItem) {
		t.Errorf("expected ErrInvalidItem for nil item, got %v", err)
	}
}

func TestResumeFromSavedPosition(t *testing.T) {
	engine := newFakeEngine(120)
	store := newFakeStore()
	store.records[7] = &model.ProgressRecord{UserID: 1, AudioItemID: 7, PositionSeconds: 42}

	c := NewController(engine, store, 1)
	if err := c.Load(context.Background(), testItem(7, 120)); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	snap := c.Snapshot()
	if snap.Position != 42 {
		t.Errorf("expected resume position 42, got %v", snap.Position)
	}
	if engine.last().Position() != 42 {
		t.Errorf("expected resource seeked to 42, got %v", engine.last().Position())
	}
	if snap.Playing {
		t.Error("resume must not start playback")
	}
}

func TestResumeSkippedWhenResourceNeverReady(t *testing.T) {
	engine := newFakeEngine(120)
	engine.nextReady = false
	store := newFakeStore()
	store.records[7] = &model.ProgressRecord{UserID: 1, AudioItemID: 7, PositionSeconds: 42}

	c := NewController(engine, store, 1)
	if err := c.Load(context.Background(), testItem(7, 120)); err != nil {
		t.Fatalf("load should succeed even when resume is skipped: %v", err)
	}
	if pos := c.Snapshot().Position; pos != 0 {
		t.Errorf("expected position 0 after skipped resume, got %v", pos)
	}
}

func TestPlayPauseToggleAndIdleNoop(t *testing.T) {
	engine := newFakeEngine(60)
	c := NewController(engine, newFakeStore(), 1)

	// Nothing loaded: must do nothing observable.
	c.PlayPause()
	if got := c.State(); got != StateIdle {
		t.Fatalf("expected idle, got %v", got)
	}

	if err := c.Load(context.Background(), testItem(1, 60)); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	c.PlayPause()
	if got := c.State(); got != StatePlaying {
		t.Errorf("expected playing, got %v", got)
	}
	c.PlayPause()
	if got := c.State(); got != StateReady {
		t.Errorf("expected ready after pause, got %v", got)
	}
}

func TestSeekClampsToDuration(t *testing.T) {
	engine := newFakeEngine(60)
	c := NewController(engine, newFakeStore(), 1)

	if err := c.SeekTo(10); !errors.Is(err, ErrNoItem) {
		t.Errorf("expected ErrNoItem seeking with nothing loaded, got %v", err)
	}

	if err := c.Load(context.Background(), testItem(1, 60)); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if err := c.SeekTo(500); err != nil {
		t.Fatalf("seek failed: %v", err)
	}
	if pos := c.Snapshot().Position; pos != 60 {
		t.Errorf("expected seek clamped to 60, got %v", pos)
	}

	if err := c.SeekTo(-5); err != nil {
		t.Fatalf("seek failed: %v", err)
	}
	if pos := c.Snapshot().Position; pos != 0 {
		t.Errorf("expected seek clamped to 0, got %v", pos)
	}

	c.PlayPause()
	if err := c.SeekTo(30); err != nil {
		t.Fatalf("seek failed: %v", err)
	}
	if !c.Snapshot().Playing {
		t.Error("seek must not change the playing flag")
	}
}

func TestStopReleasesAndResets(t *testing.T) {
	engine := newFakeEngine(60)
	store := newFakeStore()
	c := NewController(engine, store, 1)

	if err := c.Load(context.Background(), testItem(1, 60)); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := c.SeekTo(25); err != nil {
		t.Fatalf("seek failed: %v", err)
	}
	c.Stop()

	if !engine.last().isClosed() {
		t.Error("stop must release the media resource")
	}
	snap := c.Snapshot()
	if snap.Position != 0 || snap.Duration != 0 || snap.ItemID != 0 {
		t.Errorf("stop must reset session state, got %+v", snap)
	}
	if got := c.State(); got != StateIdle {
		t.Errorf("expected idle after stop, got %v", got)
	}

	// The stop position is saved so a later load can resume.
	saves := store.allSaves()
	if len(saves) != 1 || saves[0].position != 25 || saves[0].completed {
		t.Errorf("expected one stop save at 25, got %+v", saves)
	}
}

func TestCompletionSaveIsExactAndSingle(t *testing.T) {
	engine := newFakeEngine(30)
	store := newFakeStore()
	c := NewController(engine, store, 1)

	if err := c.Load(context.Background(), testItem(9, 30)); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	c.PlayPause()

	res := engine.last()
	res.emit(10, 30)
	res.emit(20, 30)
	res.emit(30, 30)
	// A stray tick after the natural end must not produce another save.
	res.emit(30, 30)

	waitFor(t, func() bool {
		for _, s := range store.allSaves() {
			if s.completed {
				return true
			}
		}
		return false
	}, "completion save never arrived")

	var completions []savedProgress
	for _, s := range store.allSaves() {
		if s.completed {
			completions = append(completions, s)
		}
	}
	if len(completions) != 1 {
		t.Fatalf("expected exactly one completion save, got %d", len(completions))
	}
	if completions[0].position != 30 {
		t.Errorf("completion save must carry the full duration, got %v", completions[0].position)
	}

	if c.Snapshot().Playing {
		t.Error("playback must stop at natural completion")
	}
}

func TestDebounceBoundsSaveVolume(t *testing.T) {
	engine := newFakeEngine(0) // duration unknown: no completion path
	store := newFakeStore()
	c := NewController(engine, store, 1)

	if err := c.Load(context.Background(), testItem(4, 0)); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	c.PlayPause()

	res := engine.last()
	// 100 seconds of playback, one tick per second.
	for pos := 1; pos <= 100; pos++ {
		res.emit(float64(pos), 0)
	}

	waitFor(t, func() bool { return store.saveCount() >= 10 }, "debounced saves never arrived")
	waitFor(t, func() bool { return c.Snapshot().Position >= 100 }, "ticks not consumed")

	if n := store.saveCount(); n != 10 {
		t.Errorf("expected 10 saves over 100s of playback, got %d", n)
	}
}

func TestAnonymousPlaybackNeverSaves(t *testing.T) {
	engine := newFakeEngine(60)
	store := newFakeStore()
	c := NewController(engine, store, 0) // unauthenticated

	if err := c.Load(context.Background(), testItem(2, 60)); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	c.PlayPause()

	res := engine.last()
	for pos := 1; pos <= 60; pos++ {
		res.emit(float64(pos), 60)
	}
	waitFor(t, func() bool { return c.Snapshot().Position >= 60 }, "ticks not consumed")
	c.Stop()

	if n := store.saveCount(); n != 0 {
		t.Errorf("anonymous playback must not persist progress, got %d saves", n)
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	engine := newFakeEngine(60)
	c := NewController(engine, newFakeStore(), 1)

	ch, cancel := c.Subscribe()
	defer cancel()

	if err := c.Load(context.Background(), testItem(1, 60)); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	c.PlayPause()
	engine.last().emit(5, 60)

	select {
	case snap := <-ch:
		if snap.ItemID != 1 || snap.Position != 5 || !snap.Playing {
			t.Errorf("unexpected snapshot %+v", snap)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestEngineErrorSurfacesDistinctly(t *testing.T) {
	engine := newFakeEngine(60)
	c := NewController(engine, newFakeStore(), 1)

	ch, cancel := c.Subscribe()
	defer cancel()

	if err := c.Load(context.Background(), testItem(1, 60)); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	engine.last().ticks <- Tick{Err: errors.New("decode failure")}

	select {
	case snap := <-ch:
		if snap.Error == "" {
			t.Errorf("expected error carried in snapshot, got %+v", snap)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no error snapshot delivered")
	}
}

func TestManagerOneSessionPerUser(t *testing.T) {
	m := NewManager(newFakeEngine(60), newFakeStore())

	a := m.Session(1, "")
	b := m.Session(1, "")
	if a != b {
		t.Error("expected the same controller for the same user")
	}
	if m.Session(2, "") == a {
		t.Error("expected distinct controllers for distinct users")
	}

	guest := m.Session(0, "device-abc")
	if guest == a || guest != m.Session(0, "device-abc") {
		t.Error("anonymous sessions must be stable per client id")
	}

	if m.Peek(3, "") != nil {
		t.Error("peek must not create sessions")
	}
}
