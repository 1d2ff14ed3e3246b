package model

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// AudioItem represents a playable devotional audio resource. Rows are
// validated at the repository boundary so malformed records never reach
// the playback controller.
type AudioItem struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title" validate:"required"`
	Speaker   string    `json:"speaker"`
	Category  string    `json:"category"`
	ObjectKey string    `json:"-" validate:"required"` // MinIO object key, served via /media/{key}
	Duration  float64   `json:"duration" validate:"gte=0"` // seconds; 0 until known
	IsPremium bool      `json:"isPremium"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var audioValidate = validator.New()

// Validate reports whether the item is well formed enough to play.
func (a *AudioItem) Validate() error {
	return audioValidate.Struct(a)
}

// MediaURI is the path the media engine opens for this item.
func (a *AudioItem) MediaURI() string {
	return "/media/" + a.ObjectKey
}
