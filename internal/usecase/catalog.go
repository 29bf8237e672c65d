package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reco-core/internal/domain/entity"
	"reco-core/internal/domain/repository"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const unnamedProduct = "Unnamed Product"

// DefaultCategories is the "Main > Sub" taxonomy the synthetic catalog covers.
var DefaultCategories = []string{
	"Electronics > Headphones",
	"Electronics > Smartphones",
	"Electronics > Laptops",
	"Electronics > Smartwatches",
	"Fashion > Men's T-Shirts",
	"Fashion > Women's Dresses",
	"Fashion > Footwear",
	"Fashion > Watches",
	"Home Appliances > Kitchen Appliances",
	"Home Appliances > Cleaning Devices",
	"Home Decor > Lighting",
	"Home Decor > Furniture",
	"Beauty & Personal Care > Skincare",
	"Beauty & Personal Care > Haircare",
	"Beauty & Personal Care > Makeup",
	"Books > Self-help",
	"Books > Fiction",
	"Books > Academic",
	"Sports & Fitness > Gym Equipment",
	"Sports & Fitness > Yoga Accessories",
	"Sports & Fitness > Sportswear",
	"Toys & Games > Educational Toys",
	"Toys & Games > Board Games",
	"Toys & Games > Outdoor Toys",
	"Groceries > Beverages",
	"Groceries > Snacks",
	"Groceries > Organic Foods",
}

// GeneratedProduct is one product as the model returns it, before ids are assigned.
type GeneratedProduct struct {
	ProductName        string          `json:"product_name"`
	Brand              string          `json:"brand"`
	AboutProduct       string          `json:"about_product"`
	ActualPrice        float64         `json:"actual_price"`
	DiscountedPrice    float64         `json:"discounted_price"`
	DiscountPercentage float64         `json:"discount_percentage"`
	Rating             float64         `json:"rating"`
	RatingCount        float64         `json:"rating_count"`
	Features           json.RawMessage `json:"features"`
	ImgLink            string          `json:"img_link"`
	ProductLink        string          `json:"product_link"`
}

var productValidator = newProductValidator()

func newProductValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateProduct requires product_id, product_name and category.
func ValidateProduct(p entity.Product) error {
	err := productValidator.Struct(p)
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		return fmt.Errorf("missing required field: %s", fields[0].Field())
	}
	return err
}

// CatalogGenerator asks the language model for products per category and
// stores them with sequential P%05d ids. Model output is cached per category
// so reruns do not call the model again.
type CatalogGenerator struct {
	provider repository.AIProvider
	catalog  repository.ProductCatalog
	cache    map[string][]GeneratedProduct
	delay    time.Duration
	logger   zerolog.Logger
}

func NewCatalogGenerator(provider repository.AIProvider, catalog repository.ProductCatalog, delay time.Duration, logger zerolog.Logger) *CatalogGenerator {
	return &CatalogGenerator{
		provider: provider,
		catalog:  catalog,
		cache:    make(map[string][]GeneratedProduct),
		delay:    delay,
		logger:   logger,
	}
}

// LoadCache restores previously generated products.
func (g *CatalogGenerator) LoadCache(r io.Reader) error {
	cache := make(map[string][]GeneratedProduct)
	if err := json.NewDecoder(r).Decode(&cache); err != nil {
		return fmt.Errorf("decode catalog cache: %w", err)
	}
	g.cache = cache
	return nil
}

func (g *CatalogGenerator) SaveCache(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g.cache)
}

// Run generates perCategory products for each category, numbering ids from
// firstID. It returns the number of products stored. Categories whose model
// output cannot be parsed are skipped.
func (g *CatalogGenerator) Run(ctx context.Context, categories []string, perCategory, firstID int) (int, error) {
	next := firstID
	total := 0
	for i, category := range categories {
		generated, fresh, err := g.generate(ctx, category, perCategory)
		if err != nil {
			g.logger.Warn().Err(err).Str("category", category).Msg("skipping category")
			continue
		}

		products := make([]entity.Product, 0, len(generated))
		for _, gp := range generated {
			p := toProduct(gp, ProductID(next), category)
			if err := ValidateProduct(p); err != nil {
				g.logger.Warn().Err(err).Str("category", category).Msg("skipping invalid product")
				continue
			}
			products = append(products, p)
			next++
		}

		if err := g.catalog.UpsertProducts(ctx, products); err != nil {
			return total, fmt.Errorf("store %s: %w", category, err)
		}
		total += len(products)
		g.logger.Info().Str("category", category).Int("products", len(products)).Bool("cached", !fresh).Msg("category stored")

		if fresh && g.delay > 0 && i < len(categories)-1 {
			select {
			case <-time.After(g.delay):
			case <-ctx.Done():
				return total, ctx.Err()
			}
		}
	}

	if total == 0 {
		return 0, errors.New("no products generated")
	}
	return total, nil
}

func (g *CatalogGenerator) generate(ctx context.Context, category string, n int) ([]GeneratedProduct, bool, error) {
	if cached, ok := g.cache[category]; ok {
		return cached, false, nil
	}

	resp, err := g.provider.Generate(ctx, buildCatalogPrompt(category, n))
	if err != nil {
		return nil, false, err
	}

	products, err := parseGeneratedProducts(resp.Content)
	if err != nil {
		return nil, false, err
	}
	g.cache[category] = products
	return products, true, nil
}

func buildCatalogPrompt(category string, n int) string {
	return fmt.Sprintf(`You are a product data generator for an e-commerce site.

Generate %d realistic, diverse products for the category "%s".
Each product must be an object inside a JSON array with fields:
- product_name
- brand
- about_product (1-2 lines)
- actual_price (integer)
- discounted_price (integer)
- discount_percentage (float)
- rating (float 3.5-5.0)
- rating_count (integer)
- features (3-5 key:value pairs relevant to this category)
- img_link (dummy URL)
- product_link (dummy URL)
Output only valid JSON.`, n, category)
}

// parseGeneratedProducts decodes the outermost JSON array in the model output.
func parseGeneratedProducts(text string) ([]GeneratedProduct, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return nil, errors.New("no JSON array in model output")
	}

	var products []GeneratedProduct
	if err := json.Unmarshal([]byte(text[start:end+1]), &products); err != nil {
		return nil, fmt.Errorf("parse generated products: %w", err)
	}
	return products, nil
}

func toProduct(gp GeneratedProduct, id, category string) entity.Product {
	name := strings.TrimSpace(gp.ProductName)
	if name == "" {
		name = unnamedProduct
	}

	sub := category
	if parts := strings.SplitN(category, ">", 2); len(parts) == 2 {
		sub = strings.TrimSpace(parts[1])
	}

	features := strings.TrimSpace(string(gp.Features))
	if features == "" || features == "null" {
		features = "{}"
	}

	return entity.Product{
		ProductID:          id,
		ProductName:        name,
		Category:           strings.TrimSpace(category),
		Brand:              gp.Brand,
		AboutProduct:       gp.AboutProduct,
		ActualPrice:        gp.ActualPrice,
		DiscountedPrice:    gp.DiscountedPrice,
		DiscountPercentage: gp.DiscountPercentage,
		Rating:             gp.Rating,
		RatingCount:        int(gp.RatingCount),
		ImgLink:            gp.ImgLink,
		ProductLink:        gp.ProductLink,
		Features:           features,
		Tags:               sub,
	}
}
