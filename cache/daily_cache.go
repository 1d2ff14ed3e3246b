package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SelahFM/db"
	"SelahFM/logger"
	"SelahFM/model"

	"github.com/go-redis/redis/v8"
)

// The daily feed is immutable once published, so a long TTL is safe;
// admin edits invalidate explicitly.
const dailyTTL = 24 * time.Hour

// GetDailyKey builds the Redis key for a calendar date's feed.
func GetDailyKey(date string) string {
	return fmt.Sprintf("daily:%s", date)
}

// GetDailyFeed returns the cached feed for a date, or (nil, nil) on a
// cache miss.
func GetDailyFeed(ctx context.Context, date string) ([]*model.DailyItem, error) {
	if db.RedisClient == nil {
		return nil, nil
	}

	result, err := db.RedisClient.Get(ctx, GetDailyKey(date)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read daily feed cache: %w", err)
	}

	var items []*model.DailyItem
	if err := json.Unmarshal([]byte(result), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached daily feed: %w", err)
	}
	return items, nil
}

// SetDailyFeed stores a date's feed. Failures are logged and swallowed;
// the cache is an optimization, not a dependency.
func SetDailyFeed(ctx context.Context, date string, items []*model.DailyItem) {
	if db.RedisClient == nil {
		return
	}

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		logger.Warn("failed to marshal daily feed for cache", logger.String("date", date), logger.ErrorField(err))
		return
	}
	if err := db.RedisClient.Set(ctx, GetDailyKey(date), itemsJSON, dailyTTL).Err(); err != nil {
		logger.Warn("failed to cache daily feed", logger.String("date", date), logger.ErrorField(err))
	}
}

// InvalidateDailyFeed drops the cached feed for a date after an admin edit.
func InvalidateDailyFeed(ctx context.Context, date string) {
	if db.RedisClient == nil {
		return
	}
	if err := db.RedisClient.Del(ctx, GetDailyKey(date)).Err(); err != nil {
		logger.Warn("failed to invalidate daily feed cache", logger.String("date", date), logger.ErrorField(err))
	}
}
