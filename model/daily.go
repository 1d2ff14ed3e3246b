package model

import "time"

// Daily item kinds.
const (
	DailyKindVerse  = "verse"
	DailyKindQuote  = "quote"
	DailyKindPrayer = "prayer"
)

// DailyItem is one entry of the daily devotional feed, scheduled for a
// specific calendar date.
type DailyItem struct {
	ID          int64     `json:"id"`
	PublishOn   string    `json:"publishOn"` // YYYY-MM-DD
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Attribution string    `json:"attribution,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
