package repository

import (
	"context"
	"errors"
	"fmt"

	"SelahFM/core/engagement"
	"SelahFM/db"
	"SelahFM/model"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// PrayerRepository is the prayer board: request CRUD plus the one-shot
// prayed-event protocol. It satisfies engagement.PrayerStore.
type PrayerRepository interface {
	Create(ctx context.Context, req *model.PrayerRequest) error
	GetByID(ctx context.Context, id int64) (*model.PrayerRequest, error)
	ListBoard(ctx context.Context, limit, offset int) ([]*model.PrayerRequest, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.PrayerRequest, error)
	Update(ctx context.Context, req *model.PrayerRequest) error
	MarkAnswered(ctx context.Context, userID, id int64, answered bool) error
	Delete(ctx context.Context, userID, id int64) error

	HasPrayed(ctx context.Context, userID, prayerID int64) (bool, error)
	RecordPrayer(ctx context.Context, userID, prayerID int64) (int64, error)
}

type gormPrayerRepository struct {
	DB *gorm.DB
}

// NewGormPrayerRepository creates a new instance of gormPrayerRepository.
func NewGormPrayerRepository(database *gorm.DB) PrayerRepository {
	if database == nil {
		database = db.GormDB
	}
	return &gormPrayerRepository{DB: database}
}

func (r *gormPrayerRepository) Create(ctx context.Context, req *model.PrayerRequest) error {
	if err := r.DB.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create prayer request: %w", err)
	}
	return nil
}

func (r *gormPrayerRepository) GetByID(ctx context.Context, id int64) (*model.PrayerRequest, error) {
	var req model.PrayerRequest
	err := r.DB.WithContext(ctx).First(&req, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load prayer request %d: %w", id, err)
	}
	return &req, nil
}

// ListBoard lists community requests, newest first.
func (r *gormPrayerRepository) ListBoard(ctx context.Context, limit, offset int) ([]*model.PrayerRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var reqs []*model.PrayerRequest
	err := r.DB.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list prayer board: %w", err)
	}
	return reqs, nil
}

func (r *gormPrayerRepository) ListByUser(ctx context.Context, userID int64) ([]*model.PrayerRequest, error) {
	var reqs []*model.PrayerRequest
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list prayer requests for user %d: %w", userID, err)
	}
	return reqs, nil
}

// Update writes the editable fields, owner-scoped.
func (r *gormPrayerRepository) Update(ctx context.Context, req *model.PrayerRequest) error {
	res := r.DB.WithContext(ctx).
		Model(&model.PrayerRequest{}).
		Where("id = ? AND user_id = ?", req.ID, req.UserID).
		Updates(map[string]interface{}{
			"title":     req.Title,
			"content":   req.Content,
			"category":  req.Category,
			"anonymous": req.Anonymous,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update prayer request %d: %w", req.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormPrayerRepository) MarkAnswered(ctx context.Context, userID, id int64, answered bool) error {
	res := r.DB.WithContext(ctx).
		Model(&model.PrayerRequest{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("answered", answered)
	if res.Error != nil {
		return fmt.Errorf("failed to mark prayer request %d answered: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormPrayerRepository) Delete(ctx context.Context, userID, id int64) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.PrayerRequest{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete prayer request %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// HasPrayed reports whether the user already recorded a prayed event
// for this request.
func (r *gormPrayerRepository) HasPrayed(ctx context.Context, userID, prayerID int64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.PrayerEvent{}).
		Where("user_id = ? AND prayer_request_id = ?", userID, prayerID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check prayer event: %w", err)
	}
	return count > 0, nil
}

// RecordPrayer inserts the (user, prayer) join row and increments the
// request's counter atomically in one transaction. The unique key on
// the join row carries the one-prayer-per-user invariant; the counter
// moves via a single relative UPDATE, so concurrent prayers from
// different users never lose updates.
func (r *gormPrayerRepository) RecordPrayer(ctx context.Context, userID, prayerID int64) (int64, error) {
	var newCount int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event := model.PrayerEvent{UserID: userID, PrayerRequestID: prayerID}
		if err := tx.Create(&event).Error; err != nil {
			var mysqlErr *mysql.MySQLError
			if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
				return engagement.ErrAlreadyPrayed
			}
			return fmt.Errorf("failed to insert prayer event: %w", err)
		}

		res := tx.Model(&model.PrayerRequest{}).
			Where("id = ?", prayerID).
			UpdateColumn("pray_count", gorm.Expr("pray_count + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("failed to increment pray count: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var req model.PrayerRequest
		if err := tx.Select("pray_count").First(&req, prayerID).Error; err != nil {
			return fmt.Errorf("failed to read pray count: %w", err)
		}
		newCount = req.PrayCount
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newCount, nil
}
