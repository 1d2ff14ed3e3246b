package playback

import (
	"context"
	"errors"
	"testing"
)

func TestAutosaverSwallowsStoreErrors(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errors.New("db down")
	s := newAutosaver(store, 1, 5)

	// None of these may panic or surface the error; persistence is
	// best-effort.
	s.onTick(context.Background(), 15)
	s.onComplete(context.Background(), 60)
	s.onStop(context.Background(), 20)

	if n := store.saveCount(); n != 0 {
		t.Errorf("expected no recorded saves on store failure, got %d", n)
	}
}

func TestAutosaverStopAfterCompletionIsNoop(t *testing.T) {
	store := newFakeStore()
	s := newAutosaver(store, 1, 5)

	s.onComplete(context.Background(), 60)
	s.onStop(context.Background(), 60)

	saves := store.allSaves()
	if len(saves) != 1 || !saves[0].completed {
		t.Errorf("expected only the completion save, got %+v", saves)
	}
}

func TestAutosaverStopAtZeroIsNoop(t *testing.T) {
	store := newFakeStore()
	s := newAutosaver(store, 1, 5)

	s.onStop(context.Background(), 0)

	if n := store.saveCount(); n != 0 {
		t.Errorf("expected no save for position 0, got %d", n)
	}
}

func TestAutosaverCompletionFiresRegardlessOfWindow(t *testing.T) {
	store := newFakeStore()
	s := newAutosaver(store, 1, 5)

	// Last debounced save landed in the same window the item ends in.
	s.onTick(context.Background(), 58)
	s.onComplete(context.Background(), 59.5)

	saves := store.allSaves()
	if len(saves) != 2 {
		t.Fatalf("expected window save plus completion save, got %+v", saves)
	}
	last := saves[len(saves)-1]
	if !last.completed || last.position != 59.5 {
		t.Errorf("completion save wrong: %+v", last)
	}
}
