package store

import (
	"context"
	"reco-core/internal/domain/entity"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLimiter(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	t.Run("blocks once the daily budget is spent", func(t *testing.T) {
		mr, client := newTestRedis(t)
		l := NewRedisLimiter(client, 100)
		l.now = func() time.Time { return day }

		ok, err := l.CheckLimit(ctx, "C00001")
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, l.Increment(ctx, "C00001", 60))
		require.NoError(t, l.Increment(ctx, "C00001", 40))

		ok, err = l.CheckLimit(ctx, "C00001")
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := mr.Get("usage:C00001:2026-05-04")
		require.NoError(t, err)
		assert.Equal(t, "100", got)
		assert.True(t, mr.TTL("usage:C00001:2026-05-04") > 0)

		l.now = func() time.Time { return day.Add(24 * time.Hour) }
		ok, err = l.CheckLimit(ctx, "C00001")
		require.NoError(t, err)
		assert.True(t, ok, "budget resets the next day")
	})

	t.Run("zero limit disables the budget", func(t *testing.T) {
		mr, client := newTestRedis(t)
		l := NewRedisLimiter(client, 0)

		require.NoError(t, l.Increment(ctx, "C00001", 1000))
		ok, err := l.CheckLimit(ctx, "C00001")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, mr.Keys())
	})

	t.Run("redis failure surfaces", func(t *testing.T) {
		mr, client := newTestRedis(t)
		l := NewRedisLimiter(client, 10)
		mr.Close()

		_, err := l.CheckLimit(ctx, "C00001")
		assert.Error(t, err)
	})
}

func TestRedisCache_Explanations(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	c := NewRedisCache(client, time.Hour)

	_, err := c.GetExplanation(ctx, "C00001", "P00002")
	assert.ErrorIs(t, err, entity.ErrCacheMiss)

	require.NoError(t, c.SaveExplanation(ctx, "C00001", "P00002", &entity.Explanation{
		Explanation: "Pairs with your trail shoes.",
		Evidence:    []string{"purchase of Trail Shoes"},
		TokenCount:  30,
	}))

	got, err := c.GetExplanation(ctx, "C00001", "P00002")
	require.NoError(t, err)
	assert.Equal(t, "Pairs with your trail shoes.", got.Explanation)
	assert.Equal(t, []string{"purchase of Trail Shoes"}, got.Evidence)
	assert.Zero(t, got.TokenCount, "token usage is not cached")

	_, err = c.GetExplanation(ctx, "C00002", "P00002")
	assert.ErrorIs(t, err, entity.ErrCacheMiss, "keys are per user")

	mr.FastForward(2 * time.Hour)
	_, err = c.GetExplanation(ctx, "C00001", "P00002")
	assert.ErrorIs(t, err, entity.ErrCacheMiss, "entries expire")
}

func TestRedisCache_UserVectors(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	c := NewRedisCache(client, time.Hour)
	last := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	require.NoError(t, c.SaveUserVector(ctx, "C00001", []float32{0.5, 0.25}, last))

	v, err := c.GetUserVector(ctx, "C00001", last)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, v)

	_, err = c.GetUserVector(ctx, "C00001", last.Add(time.Minute))
	assert.ErrorIs(t, err, entity.ErrCacheMiss, "newer events invalidate the vector")
}

func TestExplanationKey(t *testing.T) {
	k := explanationKey("C00001", "P00002")
	assert.Len(t, k, len("explain:")+16)
	assert.Equal(t, k, explanationKey("C00001", "P00002"))
	assert.NotEqual(t, k, explanationKey("C00001", "P00003"))
}
