package engagement

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"SelahFM/logger"
)

var (
	// ErrSignInRequired rejects engagement intents from anonymous callers.
	ErrSignInRequired = errors.New("sign-in required")
	// ErrToggleInFlight guards a key against concurrent double-toggles.
	ErrToggleInFlight = errors.New("toggle already in flight")
	// ErrAlreadyPrayed marks a repeated pray-for as a no-op.
	ErrAlreadyPrayed = errors.New("already prayed")
)

// RelationStore is the remote side of a favorite-style toggle: an
// existence-only relation per (user, item).
type RelationStore interface {
	Exists(ctx context.Context, userID, itemID int64) (bool, error)
	Insert(ctx context.Context, userID, itemID int64) error
	Delete(ctx context.Context, userID, itemID int64) error
}

// ToggleState is the three-valued local state of one relation:
// confirmed off, confirmed on, or pending a target value. Rollback on a
// failed mutation is a pure transition back to the confirmed value.
type ToggleState struct {
	Value   bool `json:"value"`
	Pending bool `json:"pending"`
	Target  bool `json:"target,omitempty"`
}

type relKey struct {
	userID int64
	itemID int64
}

// Toggler runs the optimistic toggle protocol against one relation
// store. Instantiated once per resource kind (audio favorites,
// daily-item favorites).
type Toggler struct {
	name  string
	store RelationStore

	mu    sync.Mutex
	state map[relKey]ToggleState
}

// NewToggler creates a toggler; name appears in logs only.
func NewToggler(name string, store RelationStore) *Toggler {
	return &Toggler{
		name:  name,
		store: store,
		state: make(map[relKey]ToggleState),
	}
}

// Toggle flips the relation for (userID, itemID) and returns the new
// confirmed value. Anonymous callers are rejected before any mutation.
// A toggle already in flight for the same key is rejected rather than
// raced. On a failed remote mutation the optimistic state reverts and
// the prior value is returned with the error.
func (t *Toggler) Toggle(ctx context.Context, userID, itemID int64) (bool, error) {
	if userID == 0 {
		return false, ErrSignInRequired
	}
	key := relKey{userID, itemID}

	current, err := t.store.Exists(ctx, userID, itemID)
	if err != nil {
		return false, fmt.Errorf("check %s relation: %w", t.name, err)
	}
	target := !current

	t.mu.Lock()
	if st, ok := t.state[key]; ok && st.Pending {
		t.mu.Unlock()
		return current, ErrToggleInFlight
	}
	t.state[key] = ToggleState{Value: current, Pending: true, Target: target}
	t.mu.Unlock()

	if target {
		err = t.store.Insert(ctx, userID, itemID)
	} else {
		err = t.store.Delete(ctx, userID, itemID)
	}

	t.mu.Lock()
	if err != nil {
		// Revert the optimistic flip.
		t.state[key] = ToggleState{Value: current}
		t.mu.Unlock()
		logger.Warn("toggle mutation failed, reverting",
			logger.String("relation", t.name),
			logger.Int64("userId", userID),
			logger.Int64("itemId", itemID),
			logger.ErrorField(err),
		)
		return current, fmt.Errorf("toggle %s: %w", t.name, err)
	}
	t.state[key] = ToggleState{Value: target}
	t.mu.Unlock()

	return target, nil
}

// StateOf reports the local three-valued state for a key. Keys never
// toggled through this process report the store's value as confirmed.
func (t *Toggler) StateOf(ctx context.Context, userID, itemID int64) (ToggleState, error) {
	key := relKey{userID, itemID}
	t.mu.Lock()
	if st, ok := t.state[key]; ok {
		t.mu.Unlock()
		return st, nil
	}
	t.mu.Unlock()

	if userID == 0 {
		return ToggleState{}, nil
	}
	exists, err := t.store.Exists(ctx, userID, itemID)
	if err != nil {
		return ToggleState{}, fmt.Errorf("check %s relation: %w", t.name, err)
	}
	return ToggleState{Value: exists}, nil
}
