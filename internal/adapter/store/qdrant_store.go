package store

import (
	"context"
	"fmt"
	"reco-core/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// QdrantStore keeps one point per product, keyed by a stable UUID derived from the product id.
type QdrantStore struct {
	client         *qdrant.Client
	collectionName string
	logger         zerolog.Logger
}

func NewQdrantStore(client *qdrant.Client, collectionName string, logger zerolog.Logger) *QdrantStore {
	return &QdrantStore{
		client:         client,
		collectionName: collectionName,
		logger:         logger,
	}
}

// PointID maps a product id onto the UUID used as its point id.
func PointID(productID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(productID)).String()
}

func (s *QdrantStore) InitCollection(ctx context.Context, dim uint64) error {
	_, err := s.client.GetCollectionInfo(ctx, s.collectionName)
	if err != nil {
		st, ok := status.FromError(err)
		if !ok || st.Code() != codes.NotFound {
			return err
		}
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     dim,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
	}

	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.collectionName,
		FieldName:      "product_id",
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("could not create product_id index (might already exist)")
	}
	return nil
}

// Vectors returns stored embeddings keyed by product id. Products missing from the index are absent.
func (s *QdrantStore) Vectors(ctx context.Context, productIDs []string) (map[string][]float32, error) {
	if len(productIDs) == 0 {
		return map[string][]float32{}, nil
	}

	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collectionName,
		Ids:            pointIDs(productIDs),
		WithPayload:    qdrant.NewWithPayloadInclude("product_id"),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve vectors: %w", err)
	}
	return vectorsFromPoints(points), nil
}

// Search returns the nearest products by cosine similarity, skipping the excluded product ids.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, limit int, exclude []string) ([]entity.Candidate, error) {
	query := buildSearchQuery(s.collectionName, vector, limit, exclude)
	if query == nil {
		return nil, nil
	}

	res, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.collectionName, err)
	}
	return candidatesFromHits(res), nil
}

func (s *QdrantStore) Upsert(ctx context.Context, products []entity.Product, vectors [][]float32) error {
	points, err := buildPoints(products, vectors)
	if err != nil {
		return err
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	return err
}

func pointIDs(productIDs []string) []*qdrant.PointId {
	ids := make([]*qdrant.PointId, len(productIDs))
	for i, id := range productIDs {
		ids[i] = qdrant.NewIDUUID(PointID(id))
	}
	return ids
}

// buildSearchQuery returns nil when limit asks for nothing.
func buildSearchQuery(collection string, vector []float32, limit int, exclude []string) *qdrant.QueryPoints {
	if limit < 1 {
		return nil
	}

	query := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayloadInclude("product_id"),
	}
	if len(exclude) > 0 {
		query.Filter = &qdrant.Filter{MustNot: []*qdrant.Condition{qdrant.NewHasID(pointIDs(exclude)...)}}
	}
	return query
}

// candidatesFromHits keeps hit order and drops points without a product_id payload.
func candidatesFromHits(hits []*qdrant.ScoredPoint) []entity.Candidate {
	out := make([]entity.Candidate, 0, len(hits))
	for _, hit := range hits {
		productID := hit.GetPayload()["product_id"].GetStringValue()
		if productID == "" {
			continue
		}
		out = append(out, entity.Candidate{ProductID: productID, Score: float64(hit.GetScore())})
	}
	return out
}

func vectorsFromPoints(points []*qdrant.RetrievedPoint) map[string][]float32 {
	out := make(map[string][]float32, len(points))
	for _, p := range points {
		productID := p.GetPayload()["product_id"].GetStringValue()
		vec := p.GetVectors().GetVector().GetData()
		if productID == "" || len(vec) == 0 {
			continue
		}
		out[productID] = vec
	}
	return out
}

func buildPoints(products []entity.Product, vectors [][]float32) ([]*qdrant.PointStruct, error) {
	if len(products) != len(vectors) {
		return nil, fmt.Errorf("upsert: %d products but %d vectors", len(products), len(vectors))
	}

	points := make([]*qdrant.PointStruct, len(products))
	for i, p := range products {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(PointID(p.ProductID)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"product_id":   p.ProductID,
				"product_name": p.ProductName,
				"category":     p.Category,
			}),
		}
	}
	return points, nil
}
