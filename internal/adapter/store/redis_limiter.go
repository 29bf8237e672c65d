package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter enforces a daily LLM token budget per user. A limit of 0 disables it.
type RedisLimiter struct {
	client *redis.Client
	limit  int // Max tokens allowed per day
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, limit int) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		now:    time.Now,
	}
}

func (r *RedisLimiter) key(userID string) string {
	return "usage:" + userID + ":" + r.now().UTC().Format("2006-01-02")
}

func (r *RedisLimiter) CheckLimit(ctx context.Context, userID string) (bool, error) {
	if r.limit <= 0 {
		return true, nil
	}
	val, err := r.client.Get(ctx, r.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil // No usage yet
	}
	if err != nil {
		return false, err
	}
	usage, _ := strconv.Atoi(val)
	return usage < r.limit, nil
}

func (r *RedisLimiter) Increment(ctx context.Context, userID string, tokens int) error {
	if r.limit <= 0 || tokens <= 0 {
		return nil
	}
	key := r.key(userID)
	pipe := r.client.TxPipeline()
	pipe.IncrBy(ctx, key, int64(tokens))
	pipe.Expire(ctx, key, 48*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}
