package model

import "time"

// PrayerRequest is a community or personal prayer request. PrayCount is
// only ever changed through an atomic SQL increment.
type PrayerRequest struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"userId"`
	Title     string    `gorm:"size:255" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	Category  string    `gorm:"size:100" json:"category"`
	Anonymous bool      `gorm:"not null;default:false" json:"anonymous"`
	PrayCount int64     `gorm:"not null;default:0" json:"prayCount"`
	Answered  bool      `gorm:"not null;default:false" json:"answered"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (PrayerRequest) TableName() string {
	return "prayer_requests"
}

// PrayerEvent records that a user prayed for a request. The unique key
// carries the at-most-one-prayer-per-(user,request) invariant.
type PrayerEvent struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	UserID          int64     `gorm:"not null;uniqueIndex:uq_user_prayer" json:"userId"`
	PrayerRequestID int64     `gorm:"not null;uniqueIndex:uq_user_prayer" json:"prayerRequestId"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (PrayerEvent) TableName() string {
	return "prayer_events"
}
