package repository

import (
	"database/sql"
	"fmt"
	"time"

	"SelahFM/db"
	"SelahFM/model"
)

// DailyRepository defines the interface for the daily devotional feed.
type DailyRepository interface {
	CreateDailyItem(item *model.DailyItem) (int64, error)
	GetDailyItemByID(id int64) (*model.DailyItem, error)
	GetItemsForDate(date string) ([]*model.DailyItem, error)
	UpdateDailyItem(item *model.DailyItem) error
	DeleteDailyItem(id int64) error
}

type mysqlDailyRepository struct {
	DB *sql.DB
}

// NewMySQLDailyRepository creates a new instance of mysqlDailyRepository.
func NewMySQLDailyRepository(database *sql.DB) DailyRepository {
	if database == nil {
		database = db.DB
	}
	return &mysqlDailyRepository{DB: database}
}

const dailyColumns = `id, publish_on, kind, title, body, attribution, created_at, updated_at`

func scanDailyItem(scan func(dest ...interface{}) error) (*model.DailyItem, error) {
	item := &model.DailyItem{}
	var attribution sql.NullString
	var publishOn time.Time
	err := scan(&item.ID, &publishOn, &item.Kind, &item.Title, &item.Body, &attribution, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.PublishOn = publishOn.Format("2006-01-02")
	if attribution.Valid {
		item.Attribution = attribution.String
	}
	return item, nil
}

// CreateDailyItem schedules a feed item for a date.
func (r *mysqlDailyRepository) CreateDailyItem(item *model.DailyItem) (int64, error) {
	query := `INSERT INTO daily_items (publish_on, kind, title, body, attribution, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	res, err := r.DB.Exec(query, item.PublishOn, item.Kind, item.Title, item.Body, item.Attribution, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateDailyItem: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateDailyItem: %w", err)
	}
	return id, nil
}

// GetDailyItemByID retrieves one feed item.
func (r *mysqlDailyRepository) GetDailyItemByID(id int64) (*model.DailyItem, error) {
	row := r.DB.QueryRow(`SELECT `+dailyColumns+` FROM daily_items WHERE id = ?`, id)
	item, err := scanDailyItem(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan daily item by ID %d: %w", id, err)
	}
	return item, nil
}

// GetItemsForDate lists the feed items scheduled for a calendar date.
func (r *mysqlDailyRepository) GetItemsForDate(date string) ([]*model.DailyItem, error) {
	rows, err := r.DB.Query(`SELECT `+dailyColumns+` FROM daily_items WHERE publish_on = ? ORDER BY kind`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily items for %s: %w", date, err)
	}
	defer rows.Close()

	items := make([]*model.DailyItem, 0)
	for rows.Next() {
		item, err := scanDailyItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily item in GetItemsForDate: %w", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetItemsForDate: %w", err)
	}
	return items, nil
}

// UpdateDailyItem updates a scheduled feed item.
func (r *mysqlDailyRepository) UpdateDailyItem(item *model.DailyItem) error {
	query := `UPDATE daily_items SET publish_on = ?, kind = ?, title = ?, body = ?, attribution = ?, updated_at = ? WHERE id = ?`
	_, err := r.DB.Exec(query, item.PublishOn, item.Kind, item.Title, item.Body, item.Attribution, time.Now(), item.ID)
	if err != nil {
		return fmt.Errorf("failed to execute UpdateDailyItem for ID %d: %w", item.ID, err)
	}
	return nil
}

// DeleteDailyItem removes a scheduled feed item.
func (r *mysqlDailyRepository) DeleteDailyItem(id int64) error {
	_, err := r.DB.Exec(`DELETE FROM daily_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to execute DeleteDailyItem for ID %d: %w", id, err)
	}
	return nil
}
