package usecase

import (
	"context"
	"fmt"
	"reco-core/internal/domain/entity"
	"reco-core/internal/domain/repository"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Orchestrator struct {
	catalog      repository.ProductCatalog
	interactions repository.InteractionStore
	index        repository.VectorIndex
	candidates   *CandidateGenerator
	explainer    *Explainer
	tokenLimiter repository.TokenLimiter
	topN         int
	logger       zerolog.Logger
}

type OrchestratorDeps struct {
	Catalog      repository.ProductCatalog
	Interactions repository.InteractionStore
	Index        repository.VectorIndex
	Candidates   *CandidateGenerator
	Explainer    *Explainer
	TokenLimiter repository.TokenLimiter // nil disables budgeting
}

func NewOrchestrator(deps OrchestratorDeps, topN int, logger zerolog.Logger) *Orchestrator {
	if topN < 1 {
		topN = 5
	}
	return &Orchestrator{
		catalog:      deps.Catalog,
		interactions: deps.Interactions,
		index:        deps.Index,
		candidates:   deps.Candidates,
		explainer:    deps.Explainer,
		tokenLimiter: deps.TokenLimiter,
		topN:         topN,
		logger:       logger,
	}
}

func (u *Orchestrator) Recommend(ctx context.Context, rawUserID string) (*entity.RecommendationResponse, error) {
	userID := strings.TrimSpace(rawUserID)
	if userID == "" {
		return nil, entity.ErrMissingUserID
	}

	// 1. Check the user's LLM budget
	if u.tokenLimiter != nil {
		allowed, err := u.tokenLimiter.CheckLimit(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("rate limiter check failed: %w", err)
		}
		if !allowed {
			return nil, entity.ErrRateLimitExceeded
		}
	}

	// 2. Load behaviour
	history, err := u.interactions.UserInteractions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("%w %s", entity.ErrNoInteractions, userID)
	}

	vectors, err := u.index.Vectors(ctx, distinctProducts(history))
	if err != nil {
		return nil, fmt.Errorf("load product vectors: %w", err)
	}

	// 3. Candidate generation
	candidates, err := u.generate(ctx, userID, history, vectors)
	if err != nil {
		return nil, err
	}

	// 4. Catalog details for prompts and names
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ProductID
	}
	products, err := u.catalog.GetProducts(ctx, ids)
	if err != nil {
		u.logger.Warn().Err(err).Str("user_id", userID).Msg("could not fetch product details")
		products = map[string]entity.Product{}
	}

	// 5. Explanations, one goroutine per recommendation, order preserved
	recs := make([]entity.Recommendation, len(candidates))
	var wg sync.WaitGroup
	for i, c := range candidates {
		wg.Add(1)
		go func(i int, c entity.Candidate) {
			defer wg.Done()

			var product *entity.Product
			name := entity.UnknownProductName
			if p, ok := products[c.ProductID]; ok {
				product = &p
				if p.ProductName != "" {
					name = p.ProductName
				}
			}

			exp := u.explainer.Explain(ctx, userID, c.ProductID, product, history)
			recs[i] = entity.Recommendation{
				ProductID:   c.ProductID,
				ProductName: name,
				Score:       c.Score,
				SourceEvent: c.SourceEvent,
				Explanation: exp.Explanation,
				Evidence:    exp.Evidence,
				Cached:      exp.Cached,
			}
			if exp.TokenCount > 0 {
				u.recordUsage(userID, exp.TokenCount)
			}
		}(i, c)
	}
	wg.Wait()

	u.logger.Info().Str("user_id", userID).Int("count", len(recs)).Msg("recommendations generated")

	return &entity.RecommendationResponse{UserID: userID, Recommendations: recs}, nil
}

func (u *Orchestrator) generate(ctx context.Context, userID string, history []entity.Interaction, vectors map[string][]float32) ([]entity.Candidate, error) {
	var groups [][]entity.Candidate
	seen := make(map[string]struct{})

	for _, event := range entity.EventTypes {
		recs, err := u.candidates.EventBased(ctx, history, event, vectors)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			seen[r.ProductID] = struct{}{}
		}
		groups = append(groups, recs)
	}

	exclude := make([]string, 0, len(seen))
	for id := range seen {
		exclude = append(exclude, id)
	}
	profile, err := u.candidates.ProfileBased(ctx, userID, history, vectors, exclude)
	if err != nil {
		return nil, err
	}
	groups = append(groups, profile)

	return mergeCandidates(u.topN, groups...), nil
}

// recordUsage charges tokens outside the request lifetime.
func (u *Orchestrator) recordUsage(userID string, tokens int) {
	if u.tokenLimiter == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := u.tokenLimiter.Increment(ctx, userID, tokens); err != nil {
			u.logger.Warn().Err(err).Str("user_id", userID).Msg("token usage update failed")
		}
	}()
}

func distinctProducts(history []entity.Interaction) []string {
	seen := make(map[string]struct{}, len(history))
	out := make([]string, 0, len(history))
	for _, in := range history {
		if _, ok := seen[in.ProductID]; ok {
			continue
		}
		seen[in.ProductID] = struct{}{}
		out = append(out, in.ProductID)
	}
	return out
}
