package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"BigCorp/internal/account"
	"BigCorp/internal/catalog"
	"BigCorp/internal/config"
	"BigCorp/internal/db"
	"BigCorp/internal/session"
	"BigCorp/internal/storefront"
	"BigCorp/pkg/kit"
)

const sessionPurgeInterval = 10 * time.Minute

func main() {
	service := "storefront"
	cfg := config.FromEnv(":8080")

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, closeDeps, err := buildDeps(ctx, cfg, log)
	if err != nil {
		log.Fatal("init dependencies failed", zap.Error(err))
	}
	defer closeDeps()

	go deps.Sessions.RunJanitor(ctx, sessionPurgeInterval)

	h := storefront.NewHandler(deps, kit.HTTPDeps{
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

// buildDeps picks Postgres stores when DB_DSN is set and seeded in-memory
// stores otherwise. CATALOG_URL switches product reads to the catalog
// service.
func buildDeps(ctx context.Context, cfg config.Config, log *zap.Logger) (storefront.Deps, func(), error) {
	var (
		catalogStore catalog.Store
		sessionStore session.Store
		users        account.UserStore
		closeFn      = func() {}
	)

	if cfg.DBConnString != "" {
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return storefront.Deps{}, nil, err
		}
		closeFn = pool.Close
		catalogStore, sessionStore, users = postgresStores(pool)
		log.Info("using postgres stores")
	} else {
		mem := catalog.NewMemStore()
		if err := catalog.Seed(ctx, mem); err != nil {
			return storefront.Deps{}, nil, err
		}
		catalogStore, sessionStore, users = mem, session.NewMemStore(), account.NewMemStore()
		log.Info("using in-memory stores")
	}

	var reader catalog.Reader = catalogStore
	if cfg.CatalogURL != "" {
		reader = catalog.NewClient(cfg.CatalogURL)
		log.Info("reading products from catalog service", zap.String("catalog_url", cfg.CatalogURL))
	}

	return storefront.Deps{
		Catalog:  reader,
		Sessions: session.NewManager(sessionStore, log, cfg.SessionCookieName, cfg.SessionTTL, cfg.SessionCookieSecure),
		Users:    users,
		JWT:      account.NewTokenMaker(cfg.JWTSecret),
	}, closeFn, nil
}

func postgresStores(pool *pgxpool.Pool) (catalog.Store, session.Store, account.UserStore) {
	return catalog.NewPostgresStore(pool), session.NewPostgresStore(pool), account.NewPostgresStore(pool)
}
