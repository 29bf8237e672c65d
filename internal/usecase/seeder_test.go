package usecase

import (
	"context"
	"reco-core/internal/domain/entity"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInteractions(t *testing.T) {
	cfg := DefaultSeedConfig()

	rows := GenerateInteractions(cfg, refNow)
	again := GenerateInteractions(cfg, refNow)

	require.Len(t, rows, cfg.Interactions)
	assert.Equal(t, rows, again, "same seed gives the same data")

	customer := regexp.MustCompile(`^C\d{5}$`)
	product := regexp.MustCompile(`^P\d{5}$`)
	counts := map[entity.EventType]int{}
	for i, r := range rows {
		assert.Regexp(t, customer, r.UserID)
		assert.Regexp(t, product, r.ProductID)
		assert.True(t, r.EventType.Valid())
		assert.False(t, r.Timestamp.After(refNow))
		counts[r.EventType]++

		if i > 0 && rows[i-1].UserID == r.UserID {
			assert.False(t, r.Timestamp.Before(rows[i-1].Timestamp))
		}
	}
	assert.Greater(t, counts[entity.EventView], counts[entity.EventAddToCart])
	assert.Greater(t, counts[entity.EventAddToCart], counts[entity.EventPurchase])
}

func TestPickEvent(t *testing.T) {
	assert.Equal(t, entity.EventView, pickEvent(0))
	assert.Equal(t, entity.EventAddToCart, pickEvent(0.7))
	assert.Equal(t, entity.EventPurchase, pickEvent(0.9))
	assert.Equal(t, entity.EventPurchase, pickEvent(0.99999))
}

func TestSeedInteractions(t *testing.T) {
	cfg := SeedConfig{Customers: 3, Products: 5, Interactions: 25, MaxAgeDays: 10, BatchSize: 10, Seed: 7}

	t.Run("batches", func(t *testing.T) {
		store := &memoryInteractions{}
		n, err := SeedInteractions(context.Background(), store, cfg, refNow)
		require.NoError(t, err)
		assert.Equal(t, 25, n)
		assert.Equal(t, 3, store.calls)
		assert.Len(t, store.inserted, 25)
	})

	t.Run("stops on failure", func(t *testing.T) {
		store := &memoryInteractions{failAt: 2}
		n, err := SeedInteractions(context.Background(), store, cfg, refNow)
		require.Error(t, err)
		assert.Equal(t, 10, n)
		assert.Contains(t, err.Error(), "insert interactions 10-20")
	})
}
