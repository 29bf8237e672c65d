package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"reco-core/internal/domain/entity"
	"reco-core/internal/domain/repository"
	"sort"
	"time"
)

type SeedConfig struct {
	Customers    int
	Products     int
	Interactions int
	MaxAgeDays   int
	BatchSize    int
	Seed         int64
}

func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		Customers:    100,
		Products:     270,
		Interactions: 2000,
		MaxAgeDays:   90,
		BatchSize:    500,
		Seed:         42,
	}
}

// eventMix is the share of views, cart adds and purchases in generated data.
var eventMix = []struct {
	event  entity.EventType
	weight float64
}{
	{entity.EventView, 0.60},
	{entity.EventAddToCart, 0.25},
	{entity.EventPurchase, 0.15},
}

func CustomerID(n int) string { return fmt.Sprintf("C%05d", n) }
func ProductID(n int) string  { return fmt.Sprintf("P%05d", n) }

// GenerateInteractions builds synthetic behaviour sorted by user then time.
func GenerateInteractions(cfg SeedConfig, now time.Time) []entity.Interaction {
	rng := rand.New(rand.NewSource(cfg.Seed))

	out := make([]entity.Interaction, cfg.Interactions)
	for i := range out {
		ago := time.Duration(rng.Intn(cfg.MaxAgeDays+1))*24*time.Hour +
			time.Duration(rng.Intn(24))*time.Hour +
			time.Duration(rng.Intn(60))*time.Minute
		out[i] = entity.Interaction{
			UserID:    CustomerID(rng.Intn(cfg.Customers) + 1),
			ProductID: ProductID(rng.Intn(cfg.Products) + 1),
			EventType: pickEvent(rng.Float64()),
			Timestamp: now.Add(-ago).Truncate(time.Second),
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func pickEvent(r float64) entity.EventType {
	acc := 0.0
	for _, m := range eventMix {
		acc += m.weight
		if r < acc {
			return m.event
		}
	}
	return eventMix[len(eventMix)-1].event
}

// SeedInteractions writes generated interactions in batches.
func SeedInteractions(ctx context.Context, store repository.InteractionStore, cfg SeedConfig, now time.Time) (int, error) {
	rows := GenerateInteractions(cfg, now)
	size := cfg.BatchSize
	if size < 1 {
		size = len(rows)
	}
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		if err := store.InsertInteractions(ctx, rows[start:end]); err != nil {
			return start, fmt.Errorf("insert interactions %d-%d: %w", start, end, err)
		}
	}
	return len(rows), nil
}
