package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ SessionStateRepository = (*redisSessionRepository)(nil)

type redisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisSessionRepository creates a Redis-backed SessionStateRepository.
// The category slot expires after ttl so abandoned sessions clean themselves
// up; retry state is deliberately NOT stored here, it lives in memory only.
func NewRedisSessionRepository(client *redis.Client, ttl time.Duration, logger *zap.Logger) SessionStateRepository {
	return &redisSessionRepository{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisSessionRepo"),
	}
}

func lastCategoryKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session_last_category:%s", sessionID)
}

func (r *redisSessionRepository) SetLastSelectedCategory(ctx context.Context, sessionID uuid.UUID, category string) error {
	if err := r.client.Set(ctx, lastCategoryKey(sessionID), category, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to set last selected category",
			zap.Stringer("sessionID", sessionID), zap.Error(err))
		return fmt.Errorf("failed to set last selected category: %w", err)
	}
	return nil
}

func (r *redisSessionRepository) GetLastSelectedCategory(ctx context.Context, sessionID uuid.UUID) (string, error) {
	val, err := r.client.Get(ctx, lastCategoryKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		r.logger.Error("Failed to get last selected category",
			zap.Stringer("sessionID", sessionID), zap.Error(err))
		return "", fmt.Errorf("failed to get last selected category: %w", err)
	}
	return val, nil
}

func (r *redisSessionRepository) ClearLastSelectedCategory(ctx context.Context, sessionID uuid.UUID) error {
	if err := r.client.Del(ctx, lastCategoryKey(sessionID)).Err(); err != nil {
		r.logger.Error("Failed to clear last selected category",
			zap.Stringer("sessionID", sessionID), zap.Error(err))
		return fmt.Errorf("failed to clear last selected category: %w", err)
	}
	return nil
}
