package model

import "time"

// ProgressRecord is the persisted last-known playback position for a
// (user, audio item) pair. Upserted by the composite unique key, never
// duplicated.
type ProgressRecord struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	UserID          int64     `gorm:"not null;uniqueIndex:uq_user_item" json:"userId"`
	AudioItemID     int64     `gorm:"not null;uniqueIndex:uq_user_item" json:"audioItemId"`
	PositionSeconds float64   `gorm:"not null;default:0" json:"positionSeconds"`
	Completed       bool      `gorm:"not null;default:false" json:"completed"`
	LastPlayedAt    time.Time `json:"lastPlayedAt"`
}

// TableName keeps the table name explicit.
func (ProgressRecord) TableName() string {
	return "progress_records"
}
