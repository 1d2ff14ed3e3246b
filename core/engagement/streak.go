package engagement

import (
	"context"
	"fmt"
	"time"

	"SelahFM/model"
)

const dateLayout = "2006-01-02"

// StreakStore persists per-user streaks.
type StreakStore interface {
	Get(ctx context.Context, userID int64) (*model.Streak, error)
	Put(ctx context.Context, streak *model.Streak) error
}

// StreakTracker advances a user's consecutive-day engagement streak.
// Journal writes and completed listens both count as activity.
type StreakTracker struct {
	store StreakStore
}

func NewStreakTracker(store StreakStore) *StreakTracker {
	return &StreakTracker{store: store}
}

// Touch records activity for the given day and returns the resulting
// streak count. Same-day repeats are no-ops; activity on the day after
// the last one extends the streak; any gap resets it to one.
func (t *StreakTracker) Touch(ctx context.Context, userID int64, today time.Time) (int, error) {
	if userID == 0 {
		return 0, ErrSignInRequired
	}

	streak, err := t.store.Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load streak: %w", err)
	}
	if streak == nil {
		streak = &model.Streak{UserID: userID}
	}

	day := today.Format(dateLayout)
	next := NextStreakCount(streak.Count, streak.LastActiveOn, day)
	if next == streak.Count && streak.LastActiveOn == day {
		return streak.Count, nil
	}

	streak.Count = next
	streak.LastActiveOn = day
	if err := t.store.Put(ctx, streak); err != nil {
		return 0, fmt.Errorf("save streak: %w", err)
	}
	return streak.Count, nil
}

// Current reads the user's live streak without recording activity. A
// streak whose last activity is older than yesterday has already been
// broken and reads as zero.
func (t *StreakTracker) Current(ctx context.Context, userID int64, today time.Time) (int, error) {
	if userID == 0 {
		return 0, ErrSignInRequired
	}

	streak, err := t.store.Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load streak: %w", err)
	}
	if streak == nil {
		return 0, nil
	}

	day := today.Format(dateLayout)
	yesterday := today.AddDate(0, 0, -1).Format(dateLayout)
	if streak.LastActiveOn == day || streak.LastActiveOn == yesterday {
		return streak.Count, nil
	}
	return 0, nil
}

// NextStreakCount is the pure streak rule: count stays on a same-day
// repeat, increments when lastActiveOn is the day before today, and
// resets to 1 otherwise (including the very first activity).
func NextStreakCount(count int, lastActiveOn, today string) int {
	if lastActiveOn == today {
		if count == 0 {
			return 1
		}
		return count
	}
	last, err := time.Parse(dateLayout, lastActiveOn)
	if err != nil {
		return 1
	}
	day, err := time.Parse(dateLayout, today)
	if err != nil {
		return 1
	}
	if last.AddDate(0, 0, 1).Equal(day) {
		return count + 1
	}
	return 1
}
