package model

import "time"

// JournalEntry is a private journal entry owned by a single user.
type JournalEntry struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"userId"`
	Title     string    `gorm:"size:255" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	Mood      string    `gorm:"size:50" json:"mood"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (JournalEntry) TableName() string {
	return "journal_entries"
}
