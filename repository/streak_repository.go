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

// StreakRepository persists per-user streaks. It satisfies
// engagement.StreakStore.
type StreakRepository interface {
	Get(ctx context.Context, userID int64) (*model.Streak, error)
	Put(ctx context.Context, streak *model.Streak) error
}

type gormStreakRepository struct {
	DB *gorm.DB
}

// NewGormStreakRepository creates a new instance of gormStreakRepository.
func NewGormStreakRepository(database *gorm.DB) StreakRepository {
	if database == nil {
		database = db.GormDB
	}
	return &gormStreakRepository{DB: database}
}

func (r *gormStreakRepository) Get(ctx context.Context, userID int64) (*model.Streak, error) {
	var streak model.Streak
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&streak).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load streak for user %d: %w", userID, err)
	}
	return &streak, nil
}

// Put upserts the streak by the user's unique key.
func (r *gormStreakRepository) Put(ctx context.Context, streak *model.Streak) error {
	streak.UpdatedAt = time.Now()
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"count", "last_active_on", "updated_at"}),
	}).Create(streak).Error
	if err != nil {
		return fmt.Errorf("failed to upsert streak for user %d: %w", streak.UserID, err)
	}
	return nil
}
