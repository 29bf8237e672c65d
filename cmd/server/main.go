package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reco-core/internal/adapter/api"
	"reco-core/internal/adapter/client"
	"reco-core/internal/adapter/store"
	"reco-core/internal/config"
	"reco-core/internal/domain/repository"
	"reco-core/internal/logging"
	"reco-core/internal/metrics"
	"reco-core/internal/usecase"

	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("info", "json")
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	metrics.Init()

	ctx := context.Background()

	db, err := store.OpenPostgres(cfg.Database.URL, cfg.App.Debug)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	// Redis for explanation cache, user vectors and token budgets
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// Qdrant for product vectors
	qClient, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Qdrant.Host,
		Port:   cfg.Qdrant.Port,
		APIKey: cfg.Qdrant.APIKey,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to qdrant")
	}
	defer qClient.Close()

	vectorStore := store.NewQdrantStore(qClient, cfg.Qdrant.Collection, logging.Component(log, "qdrant"))
	if err := vectorStore.InitCollection(ctx, cfg.Gemini.EmbeddingDim); err != nil {
		log.Fatal().Err(err).Msg("failed to init qdrant collection")
	}

	cache := store.NewRedisCache(rdb, cfg.Recommend.ExplanationCacheTTL)
	catalog := store.NewProductRepository(db)

	var provider repository.AIProvider
	if cfg.Gemini.Offline() {
		log.Warn().Msg("GEMINI_API_KEY not set, explanations run in offline mode")
	} else {
		genaiClient, err := client.NewGenAIClient(ctx, cfg.Gemini.APIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init genai client")
		}
		primaryModel := client.NewGeminiClientFromClient(genaiClient, cfg.Gemini.Model)
		fallbackModel := client.NewGeminiClientFromClient(genaiClient, cfg.Gemini.FallbackModel)
		provider = usecase.NewResilientProvider(primaryModel, fallbackModel,
			usecase.WithTimeout(cfg.Gemini.ExplanationTimeout),
			usecase.WithLogger(logging.Component(log, "llm")),
			usecase.WithFallbackHook(metrics.ObserveFallback),
		)
	}

	explainer := usecase.NewExplainer(provider, cache, catalog, logging.Component(log, "explainer"))
	explainer.OnCacheLookup(metrics.ObserveCacheLookup)

	// Inject the adapters into the Orchestration Layer
	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Catalog:      catalog,
		Interactions: store.NewInteractionRepository(db),
		Index:        vectorStore,
		Candidates:   usecase.NewCandidateGenerator(vectorStore, cache, logging.Component(log, "candidates")),
		Explainer:    explainer,
		TokenLimiter: store.NewRedisLimiter(rdb, cfg.Recommend.UserTokenLimit),
	}, cfg.Recommend.TopN, logging.Component(log, "orchestrator"))

	if provider != nil {
		go func() {
			warmCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			// Wakes up the model instance
			if _, err := provider.Generate(warmCtx, "."); err != nil {
				log.Warn().Err(err).Msg("gemini warm-up failed")
				return
			}
			log.Info().Msg("pre-warm complete")
		}()
	}

	// Initialize API Layer (Delivery Layer)
	app := api.NewApp("Recommendation Service")
	handler := api.NewRecommendHandler(orchestrator, logging.Component(log, "api"))
	api.SetupRouter(app, handler, routerConfig(cfg))

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("recommendation service running")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func routerConfig(cfg *config.Config) api.RouterConfig {
	return api.RouterConfig{
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
		CORSOrigins: cfg.Server.CORSOrigins,
		StaticDir:   cfg.Server.StaticDir,
	}
}
