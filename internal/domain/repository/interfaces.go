package repository

import (
	"context"
	"reco-core/internal/domain/entity"
	"time"
)

type ProductCatalog interface {
	ListProducts(ctx context.Context) ([]entity.Product, error)
	GetProducts(ctx context.Context, ids []string) (map[string]entity.Product, error)
	ProductNames(ctx context.Context, ids []string) (map[string]string, error)
	// UpsertProducts inserts products, replacing any row with the same product_id.
	UpsertProducts(ctx context.Context, products []entity.Product) error
}

type InteractionStore interface {
	// UserInteractions returns the user's events, newest first.
	UserInteractions(ctx context.Context, userID string) ([]entity.Interaction, error)
	InsertInteractions(ctx context.Context, batch []entity.Interaction) error
}

type VectorIndex interface {
	Vectors(ctx context.Context, productIDs []string) (map[string][]float32, error)
	Search(ctx context.Context, vector []float32, limit int, exclude []string) ([]entity.Candidate, error)
	Upsert(ctx context.Context, products []entity.Product, vectors [][]float32) error
}

type ExplanationCache interface {
	GetExplanation(ctx context.Context, userID, productID string) (*entity.Explanation, error)
	SaveExplanation(ctx context.Context, userID, productID string, exp *entity.Explanation) error
}

type UserVectorCache interface {
	// GetUserVector returns the cached vector if it was built from events at least as new as lastEvent.
	GetUserVector(ctx context.Context, userID string, lastEvent time.Time) ([]float32, error)
	SaveUserVector(ctx context.Context, userID string, vector []float32, lastEvent time.Time) error
}

type TokenLimiter interface {
	CheckLimit(ctx context.Context, userID string) (bool, error)
	Increment(ctx context.Context, userID string, tokens int) error
}

type AIProvider interface {
	Generate(ctx context.Context, prompt string) (*entity.AIResponse, error)
}

type Embedder interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}
