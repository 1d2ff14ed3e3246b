package model

import "time"

// FavoriteRelation is an existence-only join record: presence means the
// user has favorited the item. At most one row exists per (user, item).
type FavoriteRelation struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	ItemID    int64     `json:"itemId"`
	CreatedAt time.Time `json:"createdAt"`
}
