package usecase

import (
	"context"
	"fmt"
	"reco-core/internal/domain/entity"
	"reco-core/internal/domain/repository"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const (
	explanationUnavailable = "Explanation temporarily unavailable."
	summaryEventCount      = 5
)

var (
	productIDPattern = regexp.MustCompile(`P\d{5,}`)
	fenceOpen        = regexp.MustCompile("^```[a-zA-Z]*")
	fenceClose       = regexp.MustCompile("```$")
)

// Explainer asks the language model why a product suits a user. A nil
// provider runs in offline mode and produces template explanations.
type Explainer struct {
	provider repository.AIProvider
	cache    repository.ExplanationCache
	catalog  repository.ProductCatalog
	logger   zerolog.Logger
	onCache  func(hit bool)
}

func NewExplainer(provider repository.AIProvider, cache repository.ExplanationCache, catalog repository.ProductCatalog, logger zerolog.Logger) *Explainer {
	return &Explainer{
		provider: provider,
		cache:    cache,
		catalog:  catalog,
		logger:   logger,
	}
}

// OnCacheLookup registers a hook observing explanation cache hits and misses.
func (e *Explainer) OnCacheLookup(fn func(hit bool)) {
	e.onCache = fn
}

// Explain never fails: provider errors degrade to a placeholder text.
// product may be nil when the catalog does not know the id.
func (e *Explainer) Explain(ctx context.Context, userID, productID string, product *entity.Product, history []entity.Interaction) *entity.Explanation {
	if e.cache != nil {
		cached, err := e.cache.GetExplanation(ctx, userID, productID)
		if e.onCache != nil {
			e.onCache(err == nil && cached != nil)
		}
		if err == nil && cached != nil {
			cached.Cached = true
			return cached
		}
	}

	if e.provider == nil {
		return e.offline(history)
	}

	resp, err := e.provider.Generate(ctx, buildExplanationPrompt(product, history))
	if err != nil {
		e.logger.Error().Err(err).Str("user_id", userID).Str("product_id", productID).Msg("explanation generation failed")
		return &entity.Explanation{Explanation: explanationUnavailable, Evidence: []string{}}
	}

	exp := parseExplanation(resp.Content)
	exp.TokenCount = resp.TokenCount
	e.replaceProductIDs(ctx, exp)

	if e.cache != nil {
		if err := e.cache.SaveExplanation(ctx, userID, productID, exp); err != nil {
			e.logger.Warn().Err(err).Str("product_id", productID).Msg("could not cache explanation")
		}
	}
	return exp
}

func (e *Explainer) offline(history []entity.Interaction) *entity.Explanation {
	action := string(entity.EventView)
	if len(history) > 0 {
		action = string(history[0].EventType)
	}
	return &entity.Explanation{
		Explanation: fmt.Sprintf("This product is recommended because you recently %s similar items.", action),
		Evidence:    []string{action},
	}
}

// replaceProductIDs swaps catalog ids quoted by the model for product names.
func (e *Explainer) replaceProductIDs(ctx context.Context, exp *entity.Explanation) {
	if e.catalog == nil {
		return
	}

	ids := productIDPattern.FindAllString(exp.Explanation, -1)
	for _, ev := range exp.Evidence {
		ids = append(ids, productIDPattern.FindAllString(ev, -1)...)
	}
	if len(ids) == 0 {
		return
	}

	names, err := e.catalog.ProductNames(ctx, ids)
	if err != nil {
		e.logger.Warn().Err(err).Msg("product name lookup failed")
		return
	}

	replace := func(s string) string {
		return productIDPattern.ReplaceAllStringFunc(s, func(id string) string {
			if name, ok := names[id]; ok && name != "" {
				return name
			}
			return id
		})
	}

	exp.Explanation = replace(exp.Explanation)
	for i, ev := range exp.Evidence {
		exp.Evidence[i] = replace(ev)
	}
}

func buildExplanationPrompt(product *entity.Product, history []entity.Interaction) string {
	summary := "No recent user behavior found."
	if len(history) > 0 {
		n := min(len(history), summaryEventCount)
		actions := make([]string, 0, n)
		for _, in := range history[:n] {
			actions = append(actions, fmt.Sprintf("%s product %s", in.EventType, in.ProductID))
		}
		summary = "Recent actions: " + strings.Join(actions, ", ")
	}

	title, category, brand, price := entity.UnknownProductName, "N/A", "N/A", "N/A"
	if product != nil {
		title = orNA(product.ProductName)
		category = orNA(product.Category)
		brand = orNA(product.Brand)
		switch {
		case product.DiscountedPrice > 0:
			price = fmt.Sprintf("%.2f", product.DiscountedPrice)
		case product.ActualPrice > 0:
			price = fmt.Sprintf("%.2f", product.ActualPrice)
		}
	}

	return fmt.Sprintf(`Generate a 2-3 sentence JSON explanation for why this product is recommended.

User behavior:
%s

Product:
Title: %s
Category: %s
Brand: %s
Price: %s

Return JSON only:
{"explanation": "...", "evidence": ["...", "..."]}`, summary, title, category, brand, price)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// parseExplanation accepts fenced or bare JSON; anything else becomes the
// explanation text verbatim.
func parseExplanation(text string) *entity.Explanation {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = fenceOpen.ReplaceAllString(text, "")
		text = fenceClose.ReplaceAllString(text, "")
		text = strings.TrimSpace(text)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return &entity.Explanation{Explanation: text, Evidence: []string{}}
	}

	exp := &entity.Explanation{Evidence: []string{}}
	if v, ok := raw["explanation"]; ok && v != nil {
		exp.Explanation = stringify(v)
	}
	switch ev := raw["evidence"].(type) {
	case []any:
		for _, item := range ev {
			if item != nil {
				exp.Evidence = append(exp.Evidence, stringify(item))
			}
		}
	case string:
		if ev != "" {
			exp.Evidence = append(exp.Evidence, ev)
		}
	}
	return exp
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
