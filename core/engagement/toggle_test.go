package engagement

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
)

type fakeRelationStore struct {
	mu        sync.Mutex
	relations map[[2]int64]bool
	insertErr error
	deleteErr error
	inserts   int
	deletes   int

	// blockMutation, when set, holds mutations until released so tests
	// can provoke an in-flight collision.
	blockMutation chan struct{}
}

func newFakeRelationStore() *fakeRelationStore {
	return &fakeRelationStore{relations: make(map[[2]int64]bool)}
}

func (s *fakeRelationStore) Exists(ctx context.Context, userID, itemID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.relations[[2]int64{userID, itemID}], nil
}

func (s *fakeRelationStore) Insert(ctx context.Context, userID, itemID int64) error {
	if s.blockMutation != nil {
		<-s.blockMutation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserts++
	s.relations[[2]int64{userID, itemID}] = true
	return nil
}

func (s *fakeRelationStore) Delete(ctx context.Context, userID, itemID int64) error {
	if s.blockMutation != nil {
		<-s.blockMutation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletes++
	delete(s.relations, [2]int64{userID, itemID})
	return nil
}

func TestToggleOnThenOff(t *testing.T) {
	store := newFakeRelationStore()
	tog := NewToggler("audio_favorite", store)

	on, err := tog.Toggle(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !on {
		t.Error("first toggle must turn the relation on")
	}

	off, err := tog.Toggle(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if off {
		t.Error("second toggle must turn the relation off")
	}

	if store.inserts != 1 || store.deletes != 1 {
		t.Errorf("expected one insert and one delete, got %d/%d", store.inserts, store.deletes)
	}
}

func TestToggleRejectsAnonymous(t *testing.T) {
	store := newFakeRelationStore()
	tog := NewToggler("audio_favorite", store)

	_, err := tog.Toggle(context.Background(), 0, 10)
	if !errors.Is(err, ErrSignInRequired) {
		t.Fatalf("expected ErrSignInRequired, got %v", err)
	}
	if store.inserts != 0 || store.deletes != 0 {
		t.Error("anonymous toggle must not mutate anything")
	}
}

func TestToggleRevertsOnFailure(t *testing.T) {
	store := newFakeRelationStore()
	store.insertErr = errors.New("network down")
	tog := NewToggler("audio_favorite", store)

	val, err := tog.Toggle(context.Background(), 1, 10)
	if err == nil {
		t.Fatal("expected toggle error")
	}
	if val {
		t.Error("failed toggle must report the prior value")
	}

	st, err := tog.StateOf(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("state failed: %v", err)
	}
	if st.Pending || st.Value {
		t.Errorf("expected reverted confirmed-off state, got %+v", st)
	}

	// A later toggle, with the store healthy again, works normally.
	store.insertErr = nil
	on, err := tog.Toggle(context.Background(), 1, 10)
	if err != nil || !on {
		t.Errorf("expected recovery toggle to succeed, got %v/%v", on, err)
	}
}

func TestToggleInFlightCollision(t *testing.T) {
	store := newFakeRelationStore()
	store.blockMutation = make(chan struct{})
	tog := NewToggler("audio_favorite", store)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := tog.Toggle(context.Background(), 1, 10); err != nil {
			t.Errorf("first toggle failed: %v", err)
		}
	}()

	// Wait until the first toggle is pending.
	var pending bool
	for i := 0; i < 200 && !pending; i++ {
		runtime.Gosched()
		st, _ := tog.StateOf(context.Background(), 1, 10)
		pending = st.Pending
	}
	if !pending {
		t.Fatal("first toggle never became pending")
	}

	if _, err := tog.Toggle(context.Background(), 1, 10); !errors.Is(err, ErrToggleInFlight) {
		t.Errorf("expected ErrToggleInFlight, got %v", err)
	}

	close(store.blockMutation)
	<-done

	if store.inserts != 1 {
		t.Errorf("expected exactly one insert, got %d", store.inserts)
	}
}

func TestStateOfFallsThroughToStore(t *testing.T) {
	store := newFakeRelationStore()
	store.relations[[2]int64{1, 10}] = true
	tog := NewToggler("audio_favorite", store)

	st, err := tog.StateOf(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("state failed: %v", err)
	}
	if !st.Value || st.Pending {
		t.Errorf("expected confirmed-on from store, got %+v", st)
	}

	anon, err := tog.StateOf(context.Background(), 0, 10)
	if err != nil || anon.Value {
		t.Errorf("anonymous state must read as off, got %+v/%v", anon, err)
	}
}
