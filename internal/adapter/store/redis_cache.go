package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"reco-core/internal/domain/entity"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const userVectorTTL = 24 * time.Hour

// RedisCache stores LLM explanations and blended user vectors.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, explanationTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: explanationTTL}
}

func explanationKey(userID, productID string) string {
	sum := sha256.Sum256([]byte(userID + "|" + productID))
	return "explain:" + hex.EncodeToString(sum[:])[:16]
}

func (c *RedisCache) GetExplanation(ctx context.Context, userID, productID string) (*entity.Explanation, error) {
	raw, err := c.client.Get(ctx, explanationKey(userID, productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, entity.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var exp entity.Explanation
	if err := json.Unmarshal(raw, &exp); err != nil {
		return nil, fmt.Errorf("decode cached explanation: %w", err)
	}
	if exp.Evidence == nil {
		exp.Evidence = []string{}
	}
	return &exp, nil
}

func (c *RedisCache) SaveExplanation(ctx context.Context, userID, productID string, exp *entity.Explanation) error {
	raw, err := json.Marshal(exp)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, explanationKey(userID, productID), raw, c.ttl).Err()
}

type cachedUserVector struct {
	Vector    []float32 `json:"vector"`
	LastEvent int64     `json:"last_event"`
}

func (c *RedisCache) GetUserVector(ctx context.Context, userID string, lastEvent time.Time) ([]float32, error) {
	raw, err := c.client.Get(ctx, "uservec:"+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, entity.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var cached cachedUserVector
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, fmt.Errorf("decode cached user vector: %w", err)
	}
	if cached.LastEvent < lastEvent.UnixNano() || len(cached.Vector) == 0 {
		return nil, entity.ErrCacheMiss
	}
	return cached.Vector, nil
}

func (c *RedisCache) SaveUserVector(ctx context.Context, userID string, vector []float32, lastEvent time.Time) error {
	raw, err := json.Marshal(cachedUserVector{Vector: vector, LastEvent: lastEvent.UnixNano()})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "uservec:"+userID, raw, userVectorTTL).Err()
}
