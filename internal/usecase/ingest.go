package usecase

import (
	"context"
	"fmt"
	"reco-core/internal/domain/entity"
	"reco-core/internal/domain/repository"
	"regexp"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const DefaultTextMaxLen = 2000

var whitespace = regexp.MustCompile(`\s+`)

// Ingestor embeds catalog products and writes them to the vector index.
type Ingestor struct {
	catalog   repository.ProductCatalog
	embedder  repository.Embedder
	index     repository.VectorIndex
	batchSize int
	maxLen    int
	logger    zerolog.Logger
}

func NewIngestor(catalog repository.ProductCatalog, embedder repository.Embedder, index repository.VectorIndex, batchSize int, logger zerolog.Logger) *Ingestor {
	if batchSize < 1 {
		batchSize = 100
	}
	return &Ingestor{
		catalog:   catalog,
		embedder:  embedder,
		index:     index,
		batchSize: batchSize,
		maxLen:    DefaultTextMaxLen,
		logger:    logger,
	}
}

// Run returns the number of products indexed.
func (i *Ingestor) Run(ctx context.Context) (int, error) {
	products, err := i.catalog.ListProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list products: %w", err)
	}
	if len(products) == 0 {
		return 0, fmt.Errorf("catalog is empty")
	}

	total := 0
	for start := 0; start < len(products); start += i.batchSize {
		end := min(start+i.batchSize, len(products))
		batch := products[start:end]

		texts := make([]string, len(batch))
		for j, p := range batch {
			texts[j] = ProductText(p, i.maxLen)
		}

		vectors, err := i.embedder.CreateEmbeddings(ctx, texts)
		if err != nil {
			return total, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if len(vectors) != len(batch) {
			return total, fmt.Errorf("embed batch %d-%d: got %d vectors for %d products", start, end, len(vectors), len(batch))
		}

		if err := i.index.Upsert(ctx, batch, vectors); err != nil {
			return total, fmt.Errorf("upsert batch %d-%d: %w", start, end, err)
		}

		total += len(batch)
		i.logger.Info().Int("batch_rows", len(batch)).Int("total", total).Msg("indexed product batch")
	}
	return total, nil
}

// ProductText composes the descriptive text that gets embedded.
func ProductText(p entity.Product, maxLen int) string {
	var parts []string

	add := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			parts = append(parts, label+": "+value)
		}
	}

	add("Product Name", p.ProductName)
	add("Brand", p.Brand)
	add("Category", p.Category)
	add("Description", normalizeSpace(p.AboutProduct))
	if p.ActualPrice > 0 {
		parts = append(parts, fmt.Sprintf("Actual Price: %g", p.ActualPrice))
	}
	if p.DiscountedPrice > 0 {
		parts = append(parts, fmt.Sprintf("Discounted Price: %g", p.DiscountedPrice))
	}
	if p.DiscountPercentage > 0 {
		parts = append(parts, fmt.Sprintf("Discount: %g%%", p.DiscountPercentage))
	}
	if p.Rating > 0 {
		parts = append(parts, fmt.Sprintf("Rating: %g/5", p.Rating))
	}
	if p.RatingCount > 0 {
		parts = append(parts, fmt.Sprintf("Rated by %d customers", p.RatingCount))
	}
	add("Tags", p.Tags)

	if feats := parseFeatures(p.Features); len(feats) > 0 {
		keys := make([]string, 0, len(feats))
		for k := range feats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for j, k := range keys {
			pairs[j] = k + ": " + feats[k]
		}
		parts = append(parts, "Features: "+strings.Join(pairs, " "))
	}

	add("Product Link", p.ProductLink)
	add("Image Link", p.ImgLink)

	text := normalizeSpace(strings.Join(parts, " "))
	if maxLen > 0 && len(text) > maxLen {
		text = truncateRunes(text, maxLen)
	}
	return text
}

// parseFeatures flattens the catalog's JSON features column. Objects map
// directly; lists of objects are merged. Anything else yields nothing.
func parseFeatures(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" || raw == "None" {
		return nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil
	}

	out := make(map[string]string)
	switch v := decoded.(type) {
	case map[string]any:
		for k, val := range v {
			out[k] = featureValue(val)
		}
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				for k, val := range m {
					out[k] = fmt.Sprint(val)
				}
			}
		}
	}
	return out
}

func featureValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64, bool:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return normalizeSpace(string(b))
	}
}

func normalizeSpace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// truncateRunes cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
