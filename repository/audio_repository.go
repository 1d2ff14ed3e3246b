package repository

import (
	"database/sql"
	"fmt"
	"time"

	"SelahFM/db"
	"SelahFM/logger"
	"SelahFM/model"

	gocache "github.com/patrickmn/go-cache"
)

// AudioRepository defines the interface for audio catalog operations.
// Rows are validated on the way out so malformed records never reach
// the playback controller.
type AudioRepository interface {
	CreateAudioItem(item *model.AudioItem) (int64, error)
	GetAudioItemByID(id int64) (*model.AudioItem, error)
	GetAudioItemByObjectKey(objectKey string) (*model.AudioItem, error)
	GetActiveAudioItems(category string) ([]*model.AudioItem, error)
	UpdateAudioItem(item *model.AudioItem) error
	SetAudioItemActive(id int64, active bool) error
}

// mysqlAudioRepository implements AudioRepository for MySQL with a
// short-lived in-process cache in front of catalog list reads.
type mysqlAudioRepository struct {
	DB        *sql.DB
	listCache *gocache.Cache
}

// NewMySQLAudioRepository creates a new instance of mysqlAudioRepository.
func NewMySQLAudioRepository(database *sql.DB) AudioRepository {
	if database == nil {
		database = db.DB
	}
	return &mysqlAudioRepository{
		DB:        database,
		listCache: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

const audioColumns = `id, title, speaker, category, object_key, duration, is_premium, is_active, created_at, updated_at`

func scanAudioItem(scan func(dest ...interface{}) error) (*model.AudioItem, error) {
	item := &model.AudioItem{}
	var speaker, category sql.NullString
	err := scan(&item.ID, &item.Title, &speaker, &category, &item.ObjectKey, &item.Duration,
		&item.IsPremium, &item.IsActive, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if speaker.Valid {
		item.Speaker = speaker.String
	}
	if category.Valid {
		item.Category = category.String
	}
	return item, nil
}

// CreateAudioItem adds a new audio item to the catalog.
func (r *mysqlAudioRepository) CreateAudioItem(item *model.AudioItem) (int64, error) {
	if err := item.Validate(); err != nil {
		return 0, fmt.Errorf("invalid audio item: %w", err)
	}
	query := `INSERT INTO audio_items (title, speaker, category, object_key, duration, is_premium, is_active, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	res, err := r.DB.Exec(query, item.Title, item.Speaker, item.Category, item.ObjectKey,
		item.Duration, item.IsPremium, item.IsActive, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateAudioItem: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateAudioItem: %w", err)
	}
	r.listCache.Flush()
	logger.Info("audio item created", logger.Int64("id", id), logger.String("title", item.Title))
	return id, nil
}

// GetAudioItemByID retrieves a catalog row by ID. Malformed rows are
// rejected here, at the data-access boundary.
func (r *mysqlAudioRepository) GetAudioItemByID(id int64) (*model.AudioItem, error) {
	row := r.DB.QueryRow(`SELECT `+audioColumns+` FROM audio_items WHERE id = ?`, id)
	item, err := scanAudioItem(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Item not found
		}
		return nil, fmt.Errorf("failed to scan audio item by ID %d: %w", id, err)
	}
	if err := item.Validate(); err != nil {
		return nil, fmt.Errorf("malformed audio item %d: %w", id, err)
	}
	return item, nil
}

// GetAudioItemByObjectKey retrieves a catalog row by its object key.
func (r *mysqlAudioRepository) GetAudioItemByObjectKey(objectKey string) (*model.AudioItem, error) {
	row := r.DB.QueryRow(`SELECT `+audioColumns+` FROM audio_items WHERE object_key = ?`, objectKey)
	item, err := scanAudioItem(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan audio item by object key %s: %w", objectKey, err)
	}
	return item, nil
}

// GetActiveAudioItems lists active catalog rows, optionally filtered by
// category, newest first. Results are cached for a few minutes.
func (r *mysqlAudioRepository) GetActiveAudioItems(category string) ([]*model.AudioItem, error) {
	cacheKey := "active:" + category
	if cached, ok := r.listCache.Get(cacheKey); ok {
		return cached.([]*model.AudioItem), nil
	}

	query := `SELECT ` + audioColumns + ` FROM audio_items WHERE is_active = 1`
	args := []interface{}{}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query active audio items: %w", err)
	}
	defer rows.Close()

	items := make([]*model.AudioItem, 0)
	for rows.Next() {
		item, err := scanAudioItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audio item in GetActiveAudioItems: %w", err)
		}
		if err := item.Validate(); err != nil {
			// Filter malformed rows out of the feed rather than
			// failing the whole listing.
			logger.Warn("skipping malformed audio item",
				logger.Int64("id", item.ID),
				logger.ErrorField(err),
			)
			continue
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetActiveAudioItems: %w", err)
	}

	r.listCache.SetDefault(cacheKey, items)
	return items, nil
}

// UpdateAudioItem updates the mutable catalog fields.
func (r *mysqlAudioRepository) UpdateAudioItem(item *model.AudioItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("invalid audio item: %w", err)
	}
	query := `UPDATE audio_items SET title = ?, speaker = ?, category = ?, duration = ?, is_premium = ?, updated_at = ? WHERE id = ?`
	_, err := r.DB.Exec(query, item.Title, item.Speaker, item.Category, item.Duration, item.IsPremium, time.Now(), item.ID)
	if err != nil {
		return fmt.Errorf("failed to execute UpdateAudioItem for ID %d: %w", item.ID, err)
	}
	r.listCache.Flush()
	return nil
}

// SetAudioItemActive flips the active flag.
func (r *mysqlAudioRepository) SetAudioItemActive(id int64, active bool) error {
	query := `UPDATE audio_items SET is_active = ?, updated_at = ? WHERE id = ?`
	_, err := r.DB.Exec(query, active, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to execute SetAudioItemActive for ID %d: %w", id, err)
	}
	r.listCache.Flush()
	return nil
}
