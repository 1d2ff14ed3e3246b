package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"SelahFM/db"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

// FavoriteRepository is an existence-only relation store plus the
// listing the favorites screens need. It satisfies
// engagement.RelationStore.
type FavoriteRepository interface {
	Exists(ctx context.Context, userID, itemID int64) (bool, error)
	Insert(ctx context.Context, userID, itemID int64) error
	Delete(ctx context.Context, userID, itemID int64) error
	ListItemIDs(ctx context.Context, userID int64) ([]int64, error)
}

// mysqlFavoriteRepository implements FavoriteRepository over one of the
// favorites join tables; the table/column pair is the only difference
// between the audio and daily variants.
type mysqlFavoriteRepository struct {
	DB         *sql.DB
	table      string
	itemColumn string
}

// NewAudioFavoriteRepository stores favorites of catalog audio items.
func NewAudioFavoriteRepository(database *sql.DB) FavoriteRepository {
	if database == nil {
		database = db.DB
	}
	return &mysqlFavoriteRepository{DB: database, table: "audio_favorites", itemColumn: "audio_item_id"}
}

// NewDailyFavoriteRepository stores favorites of daily feed items.
func NewDailyFavoriteRepository(database *sql.DB) FavoriteRepository {
	if database == nil {
		database = db.DB
	}
	return &mysqlFavoriteRepository{DB: database, table: "daily_favorites", itemColumn: "daily_item_id"}
}

// Exists reports whether the relation row is present.
func (r *mysqlFavoriteRepository) Exists(ctx context.Context, userID, itemID int64) (bool, error) {
	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE user_id = ? AND %s = ?`, r.table, r.itemColumn)
	var one int
	err := r.DB.QueryRowContext(ctx, query, userID, itemID).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to check %s relation: %w", r.table, err)
	}
	return true, nil
}

// Insert adds the relation row. The unique (user, item) key makes a
// duplicate insert harmless.
func (r *mysqlFavoriteRepository) Insert(ctx context.Context, userID, itemID int64) error {
	query := fmt.Sprintf(`INSERT INTO %s (user_id, %s) VALUES (?, ?)`, r.table, r.itemColumn)
	_, err := r.DB.ExecContext(ctx, query, userID, itemID)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return nil // already favorited, same outcome
		}
		return fmt.Errorf("failed to insert %s relation: %w", r.table, err)
	}
	return nil
}

// Delete removes the relation row if present.
func (r *mysqlFavoriteRepository) Delete(ctx context.Context, userID, itemID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = ? AND %s = ?`, r.table, r.itemColumn)
	_, err := r.DB.ExecContext(ctx, query, userID, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete %s relation: %w", r.table, err)
	}
	return nil
}

// ListItemIDs returns the item IDs the user has favorited, newest first.
func (r *mysqlFavoriteRepository) ListItemIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = ? ORDER BY created_at DESC`, r.itemColumn, r.table)
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s for user %d: %w", r.table, userID, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", r.table, err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in ListItemIDs: %w", err)
	}
	return ids, nil
}
