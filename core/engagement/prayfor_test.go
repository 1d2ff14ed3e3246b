package engagement

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakePrayerStore struct {
	mu     sync.Mutex
	events map[[2]int64]bool
	counts map[int64]int64
}

func newFakePrayerStore() *fakePrayerStore {
	return &fakePrayerStore{
		events: make(map[[2]int64]bool),
		counts: make(map[int64]int64),
	}
}

func (s *fakePrayerStore) HasPrayed(ctx context.Context, userID, prayerID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[[2]int64{userID, prayerID}], nil
}

func (s *fakePrayerStore) RecordPrayer(ctx context.Context, userID, prayerID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int64{userID, prayerID}
	if s.events[key] {
		// The unique key in MySQL produces the same rejection.
		return 0, ErrAlreadyPrayed
	}
	s.events[key] = true
	s.counts[prayerID]++
	return s.counts[prayerID], nil
}

func TestPrayIncrementsOnce(t *testing.T) {
	store := newFakePrayerStore()
	p := NewPrayProtocol(store)

	count, err := p.Pray(context.Background(), 1, 99)
	if err != nil {
		t.Fatalf("pray failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	_, err = p.Pray(context.Background(), 1, 99)
	if !errors.Is(err, ErrAlreadyPrayed) {
		t.Fatalf("expected ErrAlreadyPrayed, got %v", err)
	}
	if store.counts[99] != 1 {
		t.Errorf("repeat pray must not mutate the counter, got %d", store.counts[99])
	}
}

func TestPrayDistinctUsersCount(t *testing.T) {
	store := newFakePrayerStore()
	p := NewPrayProtocol(store)

	for user := int64(1); user <= 3; user++ {
		if _, err := p.Pray(context.Background(), user, 99); err != nil {
			t.Fatalf("pray by user %d failed: %v", user, err)
		}
	}
	if store.counts[99] != 3 {
		t.Errorf("expected count 3, got %d", store.counts[99])
	}
}

func TestPrayRejectsAnonymous(t *testing.T) {
	store := newFakePrayerStore()
	p := NewPrayProtocol(store)

	if _, err := p.Pray(context.Background(), 0, 99); !errors.Is(err, ErrSignInRequired) {
		t.Fatalf("expected ErrSignInRequired, got %v", err)
	}
	if len(store.events) != 0 || store.counts[99] != 0 {
		t.Error("anonymous pray must not mutate anything")
	}
}
