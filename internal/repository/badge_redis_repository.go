package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-result-desk/internal/models"
)

// RedisBadgeRepository keeps badges as plain keys so several desks on the
// same Redis share them. Keys follow course_<id>_draft_status under a prefix.
type RedisBadgeRepository struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisBadgeRepository constructs the repository.
func NewRedisBadgeRepository(client *redis.Client, prefix string, logger *zap.Logger) *RedisBadgeRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBadgeRepository{client: client, prefix: prefix, logger: logger}
}

// List scans every badge key.
func (r *RedisBadgeRepository) List(ctx context.Context) ([]models.DraftStatusBadge, error) {
	var badges []models.DraftStatusBadge
	iter := r.client.Scan(ctx, 0, r.prefix+"course_*_draft_status", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		courseID, ok := r.courseIDFromKey(key)
		if !ok {
			r.logger.Debug("skipping foreign badge key", zap.String("key", key))
			continue
		}
		status, err := r.client.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("redis get %s: %w", key, err)
		}
		badges = append(badges, models.DraftStatusBadge{CourseID: courseID, Status: models.ResultStatus(status)})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan badges: %w", err)
	}
	return badges, nil
}

// Upsert writes the badge without expiry.
func (r *RedisBadgeRepository) Upsert(ctx context.Context, badge models.DraftStatusBadge) error {
	key := r.key(badge.CourseID)
	if err := r.client.Set(ctx, key, string(badge.Status), 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes one badge.
func (r *RedisBadgeRepository) Delete(ctx context.Context, courseID int64) error {
	key := r.key(courseID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// DeleteAll removes every badge key under the prefix.
func (r *RedisBadgeRepository) DeleteAll(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"course_*_draft_status", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan badges: %w", err)
	}
	return nil
}

func (r *RedisBadgeRepository) key(courseID int64) string {
	return r.prefix + models.BadgeKey(courseID)
}

func (r *RedisBadgeRepository) courseIDFromKey(key string) (int64, bool) {
	trimmed := strings.TrimPrefix(key, r.prefix)
	trimmed = strings.TrimPrefix(trimmed, "course_")
	trimmed = strings.TrimSuffix(trimmed, "_draft_status")
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
