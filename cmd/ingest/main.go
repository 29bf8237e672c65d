package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"

	"reco-core/internal/adapter/client"
	"reco-core/internal/adapter/store"
	"reco-core/internal/config"
	"reco-core/internal/logging"
	"reco-core/internal/usecase"

	"github.com/qdrant/go-client/qdrant"
)

func main() {
	batch := flag.Int("batch", 100, "products embedded per request")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("info", "json")
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err := checkConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("cannot ingest")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := store.OpenPostgres(cfg.Database.URL, cfg.App.Debug)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	qClient, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Qdrant.Host,
		Port:   cfg.Qdrant.Port,
		APIKey: cfg.Qdrant.APIKey,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to qdrant")
	}
	defer qClient.Close()

	index := store.NewQdrantStore(qClient, cfg.Qdrant.Collection, logging.Component(log, "qdrant"))
	if err := index.InitCollection(ctx, cfg.Gemini.EmbeddingDim); err != nil {
		log.Fatal().Err(err).Msg("failed to init qdrant collection")
	}

	embedder, err := client.NewEmbedder(ctx, cfg.Gemini.APIKey, cfg.Gemini.EmbeddingModel, int(cfg.Gemini.EmbeddingDim))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init embedder")
	}

	ingestor := usecase.NewIngestor(store.NewProductRepository(db), embedder, index, *batch, logging.Component(log, "ingest"))
	n, err := ingestor.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Int("indexed", n).Msg("ingest failed")
	}
	log.Info().Int("products", n).Str("collection", cfg.Qdrant.Collection).Msg("ingest complete")
}

func checkConfig(cfg *config.Config) error {
	if cfg.Gemini.Offline() {
		return errors.New("GEMINI_API_KEY is required to embed products")
	}
	return nil
}
