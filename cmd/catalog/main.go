package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"reco-core/internal/adapter/client"
	"reco-core/internal/adapter/store"
	"reco-core/internal/config"
	"reco-core/internal/logging"
	"reco-core/internal/usecase"

	"github.com/rs/zerolog"
)

func main() {
	perCategory := flag.Int("per-category", 10, "products generated per category")
	firstID := flag.Int("start", 1, "number of the first product id (P00001)")
	cachePath := flag.String("cache", "data/generated_cache.json", "model output cache file")
	delay := flag.Duration("delay", 3*time.Second, "pause between model calls")
	only := flag.String("categories", "", "comma separated categories (default: built-in list)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("info", "json")
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	if cfg.Gemini.Offline() {
		log.Fatal().Msg("GEMINI_API_KEY is required to generate the catalog")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := store.OpenPostgres(cfg.Database.URL, cfg.App.Debug)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := store.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	genaiClient, err := client.NewGenAIClient(ctx, cfg.Gemini.APIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init genai client")
	}
	provider := usecase.NewResilientProvider(
		client.NewGeminiClientFromClient(genaiClient, cfg.Gemini.Model),
		client.NewGeminiClientFromClient(genaiClient, cfg.Gemini.FallbackModel),
		usecase.WithTimeout(2*time.Minute),
		usecase.WithLogger(logging.Component(log, "llm")),
	)

	generator := usecase.NewCatalogGenerator(provider, store.NewProductRepository(db), *delay, logging.Component(log, "catalog"))
	loadCache(generator, *cachePath, log)

	n, runErr := generator.Run(ctx, categories(*only), *perCategory, *firstID)
	saveCache(generator, *cachePath, log)
	if runErr != nil {
		log.Fatal().Err(runErr).Int("stored", n).Msg("catalog generation failed")
	}
	log.Info().Int("products", n).Msg("catalog ready")
}

func categories(only string) []string {
	if strings.TrimSpace(only) == "" {
		return usecase.DefaultCategories
	}
	var out []string
	for _, c := range strings.Split(only, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func loadCache(g *usecase.CatalogGenerator, path string, log zerolog.Logger) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("could not open catalog cache")
		return
	}
	defer f.Close()
	if err := g.LoadCache(f); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("ignoring unreadable catalog cache")
	}
}

func saveCache(g *usecase.CatalogGenerator, path string, log zerolog.Logger) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warn().Err(err).Msg("could not create cache directory")
		return
	}
	f, err := os.Create(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("could not write catalog cache")
		return
	}
	defer f.Close()
	if err := g.SaveCache(f); err != nil {
		log.Warn().Err(err).Msg("could not write catalog cache")
	}
}
