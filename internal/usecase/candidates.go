package usecase

import (
	"context"
	"fmt"
	"reco-core/internal/domain/entity"
	"reco-core/internal/domain/repository"
	"time"

	"github.com/rs/zerolog"
)

const (
	eventSeedCount   = 3
	eventTopK        = 3
	eventSearchWidth = 3 // neighbours fetched per seed, as a multiple of k
	profileTopK      = 10
	profileWidth     = 2
)

// CandidateGenerator turns a user's history into scored products using
// nearest-neighbour search over product vectors.
type CandidateGenerator struct {
	index       repository.VectorIndex
	userVectors repository.UserVectorCache
	logger      zerolog.Logger
	now         func() time.Time
}

func NewCandidateGenerator(index repository.VectorIndex, userVectors repository.UserVectorCache, logger zerolog.Logger) *CandidateGenerator {
	return &CandidateGenerator{
		index:       index,
		userVectors: userVectors,
		logger:      logger,
		now:         time.Now,
	}
}

// EventBased recommends neighbours of the user's strongest products for one
// event type. vectors must hold the vectors of the user's products.
func (g *CandidateGenerator) EventBased(ctx context.Context, history []entity.Interaction, event entity.EventType, vectors map[string][]float32) ([]entity.Candidate, error) {
	seeds := topSeeds(history, event, eventSeedCount, g.now())
	if len(seeds) == 0 {
		return nil, nil
	}

	var (
		recs []entity.Candidate
		seen = make(map[string]struct{})
	)
	for _, seed := range seeds {
		vec, ok := vectors[seed]
		if !ok {
			continue
		}

		hits, err := g.index.Search(ctx, vec, eventTopK*eventSearchWidth, []string{seed})
		if err != nil {
			return nil, fmt.Errorf("%s neighbours of %s: %w", event, seed, err)
		}

		for _, hit := range hits {
			if hit.ProductID == seed {
				continue
			}
			if _, dup := seen[hit.ProductID]; dup {
				continue
			}
			seen[hit.ProductID] = struct{}{}
			recs = append(recs, entity.Candidate{
				ProductID:   hit.ProductID,
				Score:       hit.Score,
				SourceEvent: string(event),
			})
			if len(recs) >= eventTopK {
				return recs, nil
			}
		}
	}
	return recs, nil
}

// ProfileBased searches around the user's blended preference vector,
// skipping products already recommended by other sources.
func (g *CandidateGenerator) ProfileBased(ctx context.Context, userID string, history []entity.Interaction, vectors map[string][]float32, exclude []string) ([]entity.Candidate, error) {
	vec, err := g.profileVector(ctx, userID, history, vectors)
	if err != nil {
		return nil, err
	}
	if vec == nil {
		return nil, nil
	}

	hits, err := g.index.Search(ctx, vec, profileTopK*profileWidth, exclude)
	if err != nil {
		return nil, fmt.Errorf("profile neighbours: %w", err)
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	recs := make([]entity.Candidate, 0, profileTopK)
	for _, hit := range hits {
		if _, ok := skip[hit.ProductID]; ok {
			continue
		}
		recs = append(recs, entity.Candidate{
			ProductID:   hit.ProductID,
			Score:       hit.Score,
			SourceEvent: entity.SourceProfile,
		})
		if len(recs) >= profileTopK {
			break
		}
	}
	return recs, nil
}

func (g *CandidateGenerator) profileVector(ctx context.Context, userID string, history []entity.Interaction, vectors map[string][]float32) ([]float32, error) {
	last := latestEvent(history)

	if g.userVectors != nil {
		cached, err := g.userVectors.GetUserVector(ctx, userID, last)
		if err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	vec := userVector(history, vectors)
	if vec == nil {
		return nil, nil
	}

	if g.userVectors != nil {
		if err := g.userVectors.SaveUserVector(ctx, userID, vec, last); err != nil {
			g.logger.Warn().Err(err).Str("user_id", userID).Msg("could not cache user vector")
		}
	}
	return vec, nil
}
