package engagement

import (
	"context"
	"errors"
	"fmt"
)

// PrayerStore records one-time prayer events. RecordPrayer must insert
// the (user, prayer) join row and increment the request's counter
// atomically in one transaction, returning the new count; a duplicate
// join row maps to ErrAlreadyPrayed.
type PrayerStore interface {
	HasPrayed(ctx context.Context, userID, prayerID int64) (bool, error)
	RecordPrayer(ctx context.Context, userID, prayerID int64) (int64, error)
}

// PrayProtocol applies the one-prayer-per-user rule: a given user may
// record at most one prayed event per request, ever.
type PrayProtocol struct {
	store PrayerStore
}

func NewPrayProtocol(store PrayerStore) *PrayProtocol {
	return &PrayProtocol{store: store}
}

// Pray records the event and returns the request's new pray count. A
// second call for the same (user, prayer) returns ErrAlreadyPrayed and
// mutates nothing.
func (p *PrayProtocol) Pray(ctx context.Context, userID, prayerID int64) (int64, error) {
	if userID == 0 {
		return 0, ErrSignInRequired
	}

	prayed, err := p.store.HasPrayed(ctx, userID, prayerID)
	if err != nil {
		return 0, fmt.Errorf("check prayer event: %w", err)
	}
	if prayed {
		return 0, ErrAlreadyPrayed
	}

	count, err := p.store.RecordPrayer(ctx, userID, prayerID)
	if err != nil {
		// Lost the race with a concurrent call from the same user: the
		// unique key turned it into the same no-op.
		if errors.Is(err, ErrAlreadyPrayed) {
			return 0, ErrAlreadyPrayed
		}
		return 0, fmt.Errorf("record prayer: %w", err)
	}
	return count, nil
}
