package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"BigCorp/internal/catalog"
	"BigCorp/internal/config"
	"BigCorp/internal/db"
	"BigCorp/pkg/kit"
)

func main() {
	service := "catalog"
	cfg := config.FromEnv(":8082")

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	var store catalog.Store
	if cfg.DBConnString != "" {
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			log.Fatal("connect db failed", zap.Error(err))
		}
		defer pool.Close()
		store = catalog.NewPostgresStore(pool)
	} else {
		mem := catalog.NewMemStore()
		if err := catalog.Seed(ctx, mem); err != nil {
			log.Fatal("seed catalog failed", zap.Error(err))
		}
		store = mem
	}

	h := catalog.NewHandler(&catalog.Server{Store: store}, kit.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: true,
		MetricsToken:   cfg.MetricsToken,
	})

	if err := kit.RunHTTPServer(cfg.HTTPAddr, h, log, cfg.ShutdownTimeout); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
