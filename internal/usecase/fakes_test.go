package usecase

import (
	"context"
	"errors"
	"math"
	"reco-core/internal/domain/entity"
	"sort"
	"sync"
	"time"
)

// memoryIndex ranks products by cosine similarity, like the qdrant collection.
type memoryIndex struct {
	vectors  map[string][]float32
	searches int
	mu       sync.Mutex
}

func (m *memoryIndex) Vectors(_ context.Context, ids []string) (map[string][]float32, error) {
	out := make(map[string][]float32)
	for _, id := range ids {
		if v, ok := m.vectors[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (m *memoryIndex) Search(_ context.Context, vector []float32, limit int, exclude []string) ([]entity.Candidate, error) {
	m.mu.Lock()
	m.searches++
	m.mu.Unlock()

	skip := make(map[string]struct{})
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	var hits []entity.Candidate
	for id, v := range m.vectors {
		if _, ok := skip[id]; ok {
			continue
		}
		hits = append(hits, entity.Candidate{ProductID: id, Score: cosine(vector, v)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ProductID < hits[j].ProductID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *memoryIndex) Upsert(_ context.Context, products []entity.Product, vectors [][]float32) error {
	if m.vectors == nil {
		m.vectors = make(map[string][]float32)
	}
	for i, p := range products {
		m.vectors[p.ProductID] = vectors[i]
	}
	return nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type memoryCatalog struct {
	products map[string]entity.Product
	err      error
	upserts  int
}

func (m *memoryCatalog) ListProducts(context.Context) ([]entity.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]entity.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (m *memoryCatalog) GetProducts(_ context.Context, ids []string) (map[string]entity.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]entity.Product)
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memoryCatalog) ProductNames(ctx context.Context, ids []string) (map[string]string, error) {
	products, err := m.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(products))
	for id, p := range products {
		out[id] = p.ProductName
	}
	return out, nil
}

func (m *memoryCatalog) UpsertProducts(_ context.Context, products []entity.Product) error {
	if m.err != nil {
		return m.err
	}
	if m.products == nil {
		m.products = make(map[string]entity.Product)
	}
	for _, p := range products {
		m.products[p.ProductID] = p
	}
	m.upserts++
	return nil
}

type memoryInteractions struct {
	byUser   map[string][]entity.Interaction
	inserted []entity.Interaction
	failAt   int
	calls    int
}

func (m *memoryInteractions) UserInteractions(_ context.Context, userID string) ([]entity.Interaction, error) {
	rows := append([]entity.Interaction(nil), m.byUser[userID]...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Timestamp.After(rows[j].Timestamp) })
	return rows, nil
}

func (m *memoryInteractions) InsertInteractions(_ context.Context, batch []entity.Interaction) error {
	m.calls++
	if m.failAt > 0 && m.calls == m.failAt {
		return errors.New("insert failed")
	}
	m.inserted = append(m.inserted, batch...)
	return nil
}

type stubProvider struct {
	responses []*entity.AIResponse
	errs      []error
	prompts   []string
	mu        sync.Mutex
}

func (s *stubProvider) Generate(_ context.Context, prompt string) (*entity.AIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)

	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	} else if len(s.errs) > 0 && len(s.responses) == 0 {
		err = s.errs[len(s.errs)-1]
	}
	if err != nil {
		return nil, err
	}

	if len(s.responses) == 0 {
		return &entity.AIResponse{Content: `{"explanation":"ok","evidence":[]}`}, nil
	}
	if i < len(s.responses) && s.responses[i] != nil {
		return s.responses[i], nil
	}
	return s.responses[len(s.responses)-1], nil
}

func (s *stubProvider) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

type memoryExplanationCache struct {
	items map[string]entity.Explanation
	mu    sync.Mutex
}

func (m *memoryExplanationCache) GetExplanation(_ context.Context, userID, productID string) (*entity.Explanation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.items[userID+"|"+productID]
	if !ok {
		return nil, entity.ErrCacheMiss
	}
	return &exp, nil
}

func (m *memoryExplanationCache) SaveExplanation(_ context.Context, userID, productID string, exp *entity.Explanation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = make(map[string]entity.Explanation)
	}
	m.items[userID+"|"+productID] = *exp
	return nil
}

type memoryUserVectors struct {
	vectors map[string][]float32
	at      map[string]time.Time
	saves   int
}

func (m *memoryUserVectors) GetUserVector(_ context.Context, userID string, lastEvent time.Time) ([]float32, error) {
	v, ok := m.vectors[userID]
	if !ok || m.at[userID].Before(lastEvent) {
		return nil, entity.ErrCacheMiss
	}
	return v, nil
}

func (m *memoryUserVectors) SaveUserVector(_ context.Context, userID string, vector []float32, lastEvent time.Time) error {
	if m.vectors == nil {
		m.vectors = make(map[string][]float32)
		m.at = make(map[string]time.Time)
	}
	m.saves++
	m.vectors[userID] = vector
	m.at[userID] = lastEvent
	return nil
}

type stubLimiter struct {
	allowed bool
	err     error
	charged chan int
}

func (s *stubLimiter) CheckLimit(context.Context, string) (bool, error) {
	return s.allowed, s.err
}

func (s *stubLimiter) Increment(_ context.Context, _ string, tokens int) error {
	if s.charged != nil {
		s.charged <- tokens
	}
	return nil
}

type stubEmbedder struct {
	dim   int
	calls int
	err   error
}

func (s *stubEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	out, err := s.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (s *stubEmbedder) CreateEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, s.dim)
		v[0] = float32(len(t))
		out[i] = v
	}
	return out, nil
}
