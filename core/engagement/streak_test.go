package engagement

import (
	"context"
	"sync"
	"testing"
	"time"

	"SelahFM/model"
)

type fakeStreakStore struct {
	mu      sync.Mutex
	streaks map[int64]*model.Streak
	puts    int
}

func newFakeStreakStore() *fakeStreakStore {
	return &fakeStreakStore{streaks: make(map[int64]*model.Streak)}
}

func (s *fakeStreakStore) Get(ctx context.Context, userID int64) (*model.Streak, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.streaks[userID]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeStreakStore) Put(ctx context.Context, streak *model.Streak) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *streak
	s.streaks[streak.UserID] = &cp
	s.puts++
	return nil
}

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestStreakLifecycle(t *testing.T) {
	store := newFakeStreakStore()
	tracker := NewStreakTracker(store)
	ctx := context.Background()

	// First ever activity starts at 1.
	if count, err := tracker.Touch(ctx, 1, day("2026-08-01")); err != nil || count != 1 {
		t.Fatalf("expected streak 1, got %d/%v", count, err)
	}
	// Same day again: no-op, no extra write.
	puts := store.puts
	if count, err := tracker.Touch(ctx, 1, day("2026-08-01")); err != nil || count != 1 {
		t.Fatalf("expected streak still 1, got %d/%v", count, err)
	}
	if store.puts != puts {
		t.Error("same-day touch must not write")
	}
	// Next day extends.
	if count, _ := tracker.Touch(ctx, 1, day("2026-08-02")); count != 2 {
		t.Errorf("expected streak 2, got %d", count)
	}
	if count, _ := tracker.Touch(ctx, 1, day("2026-08-03")); count != 3 {
		t.Errorf("expected streak 3, got %d", count)
	}
	// A gap resets.
	if count, _ := tracker.Touch(ctx, 1, day("2026-08-10")); count != 1 {
		t.Errorf("expected streak reset to 1, got %d", count)
	}
}

func TestStreakRejectsAnonymous(t *testing.T) {
	tracker := NewStreakTracker(newFakeStreakStore())
	if _, err := tracker.Touch(context.Background(), 0, time.Now()); err == nil {
		t.Fatal("expected error for anonymous touch")
	}
}

func TestStreakCurrentReadsWithoutWriting(t *testing.T) {
	store := newFakeStreakStore()
	tracker := NewStreakTracker(store)
	ctx := context.Background()

	// No streak yet.
	if count, err := tracker.Current(ctx, 1, day("2026-08-28")); err != nil || count != 0 {
		t.Fatalf("expected 0 for missing streak, got %d/%v", count, err)
	}

	if _, err := tracker.Touch(ctx, 1, day("2026-08-27")); err != nil {
		t.Fatal(err)
	}
	puts := store.puts

	// Active yesterday still reads as alive today.
	if count, _ := tracker.Current(ctx, 1, day("2026-08-28")); count != 1 {
		t.Errorf("expected live streak 1, got %d", count)
	}
	// A two-day gap reads as broken.
	if count, _ := tracker.Current(ctx, 1, day("2026-08-30")); count != 0 {
		t.Errorf("expected broken streak to read 0, got %d", count)
	}
	if store.puts != puts {
		t.Error("Current must never write")
	}
}

func TestNextStreakCountRule(t *testing.T) {
	cases := []struct {
		name         string
		count        int
		lastActiveOn string
		today        string
		want         int
	}{
		{"first activity", 0, "", "2026-08-28", 1},
		{"same day", 4, "2026-08-28", "2026-08-28", 4},
		{"consecutive day", 4, "2026-08-27", "2026-08-28", 5},
		{"two day gap", 4, "2026-08-25", "2026-08-28", 1},
		{"month boundary", 2, "2026-07-31", "2026-08-01", 3},
		{"garbage last date", 9, "not-a-date", "2026-08-28", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NextStreakCount(tc.count, tc.lastActiveOn, tc.today); got != tc.want {
				t.Errorf("NextStreakCount(%d, %q, %q) = %d, want %d",
					tc.count, tc.lastActiveOn, tc.today, got, tc.want)
			}
		})
	}
}
