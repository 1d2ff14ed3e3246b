package model

import "time"

// Streak tracks a user's consecutive-day engagement. LastActiveOn holds
// a calendar date (YYYY-MM-DD) so comparisons ignore time of day.
type Streak struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	UserID       int64     `gorm:"not null;uniqueIndex" json:"userId"`
	Count        int       `gorm:"not null;default:0" json:"count"`
	LastActiveOn string    `gorm:"size:10" json:"lastActiveOn"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Streak) TableName() string {
	return "streaks"
}
