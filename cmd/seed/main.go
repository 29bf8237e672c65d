package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"reco-core/internal/adapter/store"
	"reco-core/internal/config"
	"reco-core/internal/logging"
	"reco-core/internal/usecase"
)

func main() {
	def := usecase.DefaultSeedConfig()
	customers := flag.Int("customers", def.Customers, "number of synthetic customers")
	products := flag.Int("products", def.Products, "number of catalog products to reference")
	interactions := flag.Int("interactions", def.Interactions, "number of interactions to generate")
	days := flag.Int("days", def.MaxAgeDays, "maximum event age in days")
	seed := flag.Int64("seed", def.Seed, "random seed")
	migrateOnly := flag.Bool("migrate-only", false, "only create the schema")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("info", "json")
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	db, err := store.OpenPostgres(cfg.Database.URL, cfg.App.Debug)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	if err := store.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("schema ready")
	if *migrateOnly {
		return
	}

	seedCfg := def
	seedCfg.Customers = *customers
	seedCfg.Products = *products
	seedCfg.Interactions = *interactions
	seedCfg.MaxAgeDays = *days
	seedCfg.Seed = *seed
	if err := validateSeedConfig(seedCfg); err != nil {
		log.Fatal().Err(err).Msg("invalid seed flags")
	}
	n, err := usecase.SeedInteractions(context.Background(), store.NewInteractionRepository(db), seedCfg, time.Now())
	if err != nil {
		log.Fatal().Err(err).Int("inserted", n).Msg("seeding failed")
	}
	log.Info().Int("interactions", n).Msg("seeding complete")
}

func validateSeedConfig(c usecase.SeedConfig) error {
	if c.Customers < 1 || c.Products < 1 {
		return errors.New("customers and products must be positive")
	}
	if c.Interactions < 0 || c.MaxAgeDays < 0 {
		return errors.New("interactions and days must not be negative")
	}
	return nil
}
