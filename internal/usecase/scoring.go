package usecase

import (
	"math"
	"reco-core/internal/domain/entity"
	"sort"
	"time"
)

const (
	// probabilityDecayPerDay ranks seed products: recent strong events first.
	probabilityDecayPerDay = 0.1
	// profileDecayPerDay fades events older than the user's newest one.
	profileDecayPerDay = 0.05
)

type weightedProduct struct {
	productID   string
	probability float64
}

// eventProbabilities weights each interaction by event strength and age,
// normalised to sum to 1 over the given slice.
func eventProbabilities(interactions []entity.Interaction, now time.Time) []float64 {
	probs := make([]float64, len(interactions))
	total := 0.0
	for i, in := range interactions {
		ageDays := now.Sub(in.Timestamp).Hours() / 24
		w := in.EventType.Weight() * math.Exp(-probabilityDecayPerDay*ageDays)
		probs[i] = w
		total += w
	}
	if total == 0 {
		return probs
	}
	for i := range probs {
		probs[i] /= total
	}
	return probs
}

// topSeeds returns up to n distinct products of the given event type,
// ordered by probability. Probabilities are computed across all of the
// user's events before filtering.
func topSeeds(interactions []entity.Interaction, event entity.EventType, n int, now time.Time) []string {
	probs := eventProbabilities(interactions, now)

	best := make(map[string]float64)
	for i, in := range interactions {
		if in.EventType != event {
			continue
		}
		if p, ok := best[in.ProductID]; !ok || probs[i] > p {
			best[in.ProductID] = probs[i]
		}
	}

	ranked := make([]weightedProduct, 0, len(best))
	for id, p := range best {
		ranked = append(ranked, weightedProduct{productID: id, probability: p})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].probability != ranked[j].probability {
			return ranked[i].probability > ranked[j].probability
		}
		return ranked[i].productID < ranked[j].productID
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.productID
	}
	return out
}

// userVector blends product vectors weighted by event strength, decayed
// relative to the user's newest event. Interactions whose product has no
// vector are skipped; nil is returned when nothing contributes.
func userVector(interactions []entity.Interaction, vectors map[string][]float32) []float32 {
	if len(interactions) == 0 {
		return nil
	}

	newest := latestEvent(interactions)

	var (
		sum    []float64
		weight float64
	)
	for _, in := range interactions {
		v, ok := vectors[in.ProductID]
		if !ok || len(v) == 0 {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(v))
		}
		if len(v) != len(sum) {
			continue
		}
		ageDays := newest.Sub(in.Timestamp).Hours() / 24
		w := in.EventType.Weight() * math.Exp(-profileDecayPerDay*ageDays)
		for i, x := range v {
			sum[i] += float64(x) * w
		}
		weight += w
	}

	if weight == 0 {
		return nil
	}
	out := make([]float32, len(sum))
	for i, x := range sum {
		out[i] = float32(x / weight)
	}
	return out
}

func latestEvent(interactions []entity.Interaction) time.Time {
	var newest time.Time
	for _, in := range interactions {
		if in.Timestamp.After(newest) {
			newest = in.Timestamp
		}
	}
	return newest
}

// mergeCandidates keeps the best score per product and returns the top n
// by descending score, ties broken by product id.
func mergeCandidates(n int, groups ...[]entity.Candidate) []entity.Candidate {
	best := make(map[string]entity.Candidate)
	for _, group := range groups {
		for _, c := range group {
			if cur, ok := best[c.ProductID]; !ok || c.Score > cur.Score {
				best[c.ProductID] = c
			}
		}
	}

	merged := make([]entity.Candidate, 0, len(best))
	for _, c := range best {
		merged = append(merged, c)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].ProductID < merged[j].ProductID
	})

	if n > 0 && len(merged) > n {
		merged = merged[:n]
	}
	return merged
}
