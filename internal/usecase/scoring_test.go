package usecase

import (
	"reco-core/internal/domain/entity"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(d float64) time.Time {
	return refNow.Add(-time.Duration(d * 24 * float64(time.Hour)))
}

func TestEventProbabilities_SumToOneAndFavourStrongRecentEvents(t *testing.T) {
	history := []entity.Interaction{
		{ProductID: "P00001", EventType: entity.EventView, Timestamp: daysAgo(0)},
		{ProductID: "P00002", EventType: entity.EventPurchase, Timestamp: daysAgo(0)},
		{ProductID: "P00003", EventType: entity.EventPurchase, Timestamp: daysAgo(30)},
	}

	probs := eventProbabilities(history, refNow)

	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, probs[1], probs[0], "purchase outweighs view at the same age")
	assert.Greater(t, probs[1], probs[2], "recent purchase outweighs old purchase")
}

func TestTopSeeds(t *testing.T) {
	history := []entity.Interaction{
		{ProductID: "P00001", EventType: entity.EventAddToCart, Timestamp: daysAgo(10)},
		{ProductID: "P00002", EventType: entity.EventAddToCart, Timestamp: daysAgo(1)},
		{ProductID: "P00002", EventType: entity.EventAddToCart, Timestamp: daysAgo(20)},
		{ProductID: "P00003", EventType: entity.EventAddToCart, Timestamp: daysAgo(5)},
		{ProductID: "P00004", EventType: entity.EventAddToCart, Timestamp: daysAgo(50)},
		{ProductID: "P00005", EventType: entity.EventView, Timestamp: daysAgo(0)},
	}

	seeds := topSeeds(history, entity.EventAddToCart, 3, refNow)

	assert.Equal(t, []string{"P00002", "P00003", "P00001"}, seeds)
	assert.Empty(t, topSeeds(history, entity.EventPurchase, 3, refNow))
}

func TestUserVector(t *testing.T) {
	vectors := map[string][]float32{
		"P00001": {1, 0},
		"P00002": {0, 1},
	}

	t.Run("weights by event strength", func(t *testing.T) {
		history := []entity.Interaction{
			{ProductID: "P00001", EventType: entity.EventPurchase, Timestamp: refNow},
			{ProductID: "P00002", EventType: entity.EventView, Timestamp: refNow},
		}
		v := userVector(history, vectors)
		require.Len(t, v, 2)
		assert.InDelta(t, 5.0/6.0, v[0], 1e-6)
		assert.InDelta(t, 1.0/6.0, v[1], 1e-6)
	})

	t.Run("older events decay", func(t *testing.T) {
		history := []entity.Interaction{
			{ProductID: "P00001", EventType: entity.EventView, Timestamp: refNow},
			{ProductID: "P00002", EventType: entity.EventView, Timestamp: daysAgo(20)},
		}
		v := userVector(history, vectors)
		assert.Greater(t, v[0], v[1])
	})

	t.Run("no vectors yields nil", func(t *testing.T) {
		history := []entity.Interaction{{ProductID: "P99999", EventType: entity.EventView, Timestamp: refNow}}
		assert.Nil(t, userVector(history, vectors))
	})
}

func TestMergeCandidates(t *testing.T) {
	view := []entity.Candidate{
		{ProductID: "P1", Score: 0.5, SourceEvent: "view"},
		{ProductID: "P2", Score: 0.9, SourceEvent: "view"},
	}
	cart := []entity.Candidate{
		{ProductID: "P1", Score: 0.8, SourceEvent: "add_to_cart"},
		{ProductID: "P3", Score: 0.8, SourceEvent: "add_to_cart"},
	}
	profile := []entity.Candidate{
		{ProductID: "P4", Score: 0.1, SourceEvent: "profile"},
	}

	merged := mergeCandidates(3, view, cart, profile)

	require.Len(t, merged, 3)
	assert.Equal(t, "P2", merged[0].ProductID)
	assert.Equal(t, "P1", merged[1].ProductID, "ties break on product id")
	assert.Equal(t, "add_to_cart", merged[1].SourceEvent, "best score keeps its source")
	assert.Equal(t, "P3", merged[2].ProductID)
}
