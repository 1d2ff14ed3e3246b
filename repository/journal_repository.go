package repository

import (
	"context"
	"errors"
	"fmt"

	"SelahFM/db"
	"SelahFM/model"

	"gorm.io/gorm"
)

// JournalRepository is owner-scoped CRUD for journal entries.
type JournalRepository interface {
	Create(ctx context.Context, entry *model.JournalEntry) error
	GetByID(ctx context.Context, userID, id int64) (*model.JournalEntry, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.JournalEntry, error)
	Update(ctx context.Context, entry *model.JournalEntry) error
	Delete(ctx context.Context, userID, id int64) error
}

type gormJournalRepository struct {
	DB *gorm.DB
}

// NewGormJournalRepository creates a new instance of gormJournalRepository.
func NewGormJournalRepository(database *gorm.DB) JournalRepository {
	if database == nil {
		database = db.GormDB
	}
	return &gormJournalRepository{DB: database}
}

func (r *gormJournalRepository) Create(ctx context.Context, entry *model.JournalEntry) error {
	if err := r.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create journal entry: %w", err)
	}
	return nil
}

// GetByID returns the entry only when it belongs to userID.
func (r *gormJournalRepository) GetByID(ctx context.Context, userID, id int64) (*model.JournalEntry, error) {
	var entry model.JournalEntry
	err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load journal entry %d: %w", id, err)
	}
	return &entry, nil
}

func (r *gormJournalRepository) ListByUser(ctx context.Context, userID int64) ([]*model.JournalEntry, error) {
	var entries []*model.JournalEntry
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries for user %d: %w", userID, err)
	}
	return entries, nil
}

// Update writes the editable fields; the WHERE clause carries the
// ownership check.
func (r *gormJournalRepository) Update(ctx context.Context, entry *model.JournalEntry) error {
	res := r.DB.WithContext(ctx).
		Model(&model.JournalEntry{}).
		Where("id = ? AND user_id = ?", entry.ID, entry.UserID).
		Updates(map[string]interface{}{
			"title":   entry.Title,
			"content": entry.Content,
			"mood":    entry.Mood,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update journal entry %d: %w", entry.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormJournalRepository) Delete(ctx context.Context, userID, id int64) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.JournalEntry{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete journal entry %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
