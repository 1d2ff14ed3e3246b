package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SelahFM/db"
	"SelahFM/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressRepository persists playback positions, upserted by the
// (user, item) composite key. It satisfies playback.ProgressStore.
type ProgressRepository interface {
	Save(ctx context.Context, userID, itemID int64, positionSeconds float64, completed bool) error
	Load(ctx context.Context, userID, itemID int64) (*model.ProgressRecord, error)
	RecentlyPlayed(ctx context.Context, userID int64, limit int) ([]*model.ProgressRecord, error)
}

// gormProgressRepository implements ProgressRepository with GORM.
type gormProgressRepository struct {
	DB *gorm.DB
}

// NewGormProgressRepository creates a new instance of gormProgressRepository.
func NewGormProgressRepository(database *gorm.DB) ProgressRepository {
	if database == nil {
		database = db.GormDB
	}
	return &gormProgressRepository{DB: database}
}

// Save upserts the progress record for (userID, itemID). Saves for
// unauthenticated callers are silent no-ops — persistence is a
// best-effort enhancement, never a precondition for playback.
func (r *gormProgressRepository) Save(ctx context.Context, userID, itemID int64, positionSeconds float64, completed bool) error {
	if userID == 0 {
		return nil
	}

	record := model.ProgressRecord{
		UserID:          userID,
		AudioItemID:     itemID,
		PositionSeconds: positionSeconds,
		Completed:       completed,
		LastPlayedAt:    time.Now(),
	}
	// Upsert keyed on the composite unique index: last write wins,
	// never a duplicate row.
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "audio_item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"position_seconds", "completed", "last_played_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to upsert progress for user %d item %d: %w", userID, itemID, err)
	}
	return nil
}

// Load returns the record for (userID, itemID), or nil when absent or
// the caller is unauthenticated.
func (r *gormProgressRepository) Load(ctx context.Context, userID, itemID int64) (*model.ProgressRecord, error) {
	if userID == 0 {
		return nil, nil
	}

	var record model.ProgressRecord
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND audio_item_id = ?", userID, itemID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load progress for user %d item %d: %w", userID, itemID, err)
	}
	return &record, nil
}

// RecentlyPlayed lists the user's progress records, most recent first,
// for the continue-listening shelf.
func (r *gormProgressRepository) RecentlyPlayed(ctx context.Context, userID int64, limit int) ([]*model.ProgressRecord, error) {
	if userID == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var records []*model.ProgressRecord
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_played_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recently played for user %d: %w", userID, err)
	}
	return records, nil
}
