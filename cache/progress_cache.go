package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SelahFM/core/playback"
	"SelahFM/db"
	"SelahFM/logger"
	"SelahFM/model"

	"github.com/go-redis/redis/v8"
)

const progressTTL = 24 * time.Hour

// GetProgressKey builds the Redis key for a (user, item) progress record.
func GetProgressKey(userID, itemID int64) string {
	return fmt.Sprintf("progress:%d:%d", userID, itemID)
}

// cachedProgressStore decorates a durable playback.ProgressStore with a
// Redis read-through layer. The database is the source of truth; Redis
// only absorbs the resume-position reads that fire on every load. Cache
// failures degrade to the database silently.
type cachedProgressStore struct {
	next playback.ProgressStore
}

// NewCachedProgressStore wraps next with the Redis layer. When Redis is
// not connected the wrapper is a transparent passthrough.
func NewCachedProgressStore(next playback.ProgressStore) playback.ProgressStore {
	return &cachedProgressStore{next: next}
}

func (s *cachedProgressStore) Save(ctx context.Context, userID, itemID int64, positionSeconds float64, completed bool) error {
	if err := s.next.Save(ctx, userID, itemID, positionSeconds, completed); err != nil {
		return err
	}
	if userID == 0 || db.RedisClient == nil {
		return nil
	}

	record := model.ProgressRecord{
		UserID:          userID,
		AudioItemID:     itemID,
		PositionSeconds: positionSeconds,
		Completed:       completed,
		LastPlayedAt:    time.Now(),
	}
	recordJSON, err := json.Marshal(record)
	if err != nil {
		logger.Warn("failed to marshal progress record for cache", logger.ErrorField(err))
		return nil
	}
	if err := db.RedisClient.Set(ctx, GetProgressKey(userID, itemID), recordJSON, progressTTL).Err(); err != nil {
		logger.Warn("failed to cache progress record",
			logger.Int64("userId", userID),
			logger.Int64("itemId", itemID),
			logger.ErrorField(err),
		)
	}
	return nil
}

func (s *cachedProgressStore) Load(ctx context.Context, userID, itemID int64) (*model.ProgressRecord, error) {
	if userID == 0 {
		return nil, nil
	}

	if db.RedisClient != nil {
		result, err := db.RedisClient.Get(ctx, GetProgressKey(userID, itemID)).Result()
		if err == nil {
			var record model.ProgressRecord
			if err := json.Unmarshal([]byte(result), &record); err == nil {
				return &record, nil
			}
			logger.Warn("failed to unmarshal cached progress record, falling back to database",
				logger.Int64("userId", userID),
				logger.Int64("itemId", itemID),
			)
		} else if err != redis.Nil {
			logger.Warn("failed to read progress cache", logger.ErrorField(err))
		}
	}

	record, err := s.next.Load(ctx, userID, itemID)
	if err != nil || record == nil {
		return record, err
	}

	// Backfill so the next resume read is a cache hit.
	if db.RedisClient != nil {
		if recordJSON, err := json.Marshal(record); err == nil {
			if err := db.RedisClient.Set(ctx, GetProgressKey(userID, itemID), recordJSON, progressTTL).Err(); err != nil {
				logger.Warn("failed to backfill progress cache", logger.ErrorField(err))
			}
		}
	}
	return record, nil
}
