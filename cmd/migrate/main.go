package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"BigCorp/internal/catalog"
	"BigCorp/internal/config"
	"BigCorp/internal/db"
	"BigCorp/pkg/kit"
)

const migrateTimeout = 2 * time.Minute

func main() {
	cfg := config.FromEnv("")

	log := kit.NewLogger("migrate", cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if cfg.DBConnString == "" {
		log.Fatal("DB_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	if err := db.Migrate(ctx, cfg.DBConnString); err != nil {
		log.Fatal("migrate failed", zap.Error(err))
	}
	log.Info("migrations applied")

	if seed, _ := strconv.ParseBool(os.Getenv("SEED_CATALOG")); !seed {
		return
	}

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatal("connect db failed", zap.Error(err))
	}
	defer pool.Close()

	store := catalog.NewPostgresStore(pool)
	existing, err := store.ListProducts(ctx)
	if err != nil {
		log.Fatal("list products failed", zap.Error(err))
	}
	if len(existing) > 0 {
		log.Info("catalog not empty, skipping seed", zap.Int("products", len(existing)))
		return
	}
	if err := catalog.Seed(ctx, store); err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
	log.Info("catalog seeded")
}
