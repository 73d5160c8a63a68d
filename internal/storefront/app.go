// Package storefront wires the shop together: catalog pages, the session
// cart and accounts behind one router.
package storefront

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"BigCorp/internal/account"
	"BigCorp/internal/cart"
	"BigCorp/internal/catalog"
	"BigCorp/internal/session"
	"BigCorp/pkg/kit"
)

type Deps struct {
	Catalog  catalog.Reader
	Sessions *session.Manager
	Users    account.UserStore
	JWT      *account.TokenMaker
}

const readyTimeout = 2 * time.Second

type Server struct {
	Catalog  catalog.Reader
	Accounts *account.Server
	Log      *zap.Logger
}

func NewHandler(deps Deps, httpDeps kit.HTTPDeps) http.Handler {
	log := httpDeps.Log

	accounts := &account.Server{Log: log, Users: deps.Users, JWT: deps.JWT}
	pages := &Server{Catalog: deps.Catalog, Accounts: accounts, Log: log}
	carts := &cart.Server{Products: deps.Catalog, Log: log}

	if httpDeps.Registry != nil {
		carts.Metrics = cart.NewMetrics(httpDeps.Registry)
	}

	r := kit.NewRouter(httpDeps)

	r.Get("/healthz", kit.Healthz)
	r.Get("/readyz", readyz(deps, log))

	visitor := chi.Chain(deps.Sessions.Middleware, cart.Attach(deps.Catalog))
	r.NotFound(visitor.HandlerFunc(pages.notFound).ServeHTTP)

	r.Group(func(sr chi.Router) {
		sr.Use(visitor...)

		sr.Get("/", pages.products)
		sr.Get("/product/{slug}", pages.productDetail)
		sr.Get("/category/{slug}", pages.categoryList)

		sr.Route("/cart", func(cr chi.Router) {
			cr.Get("/", pages.cartView)
			cr.Post("/add", carts.Add)
			cr.Post("/update", carts.Update)
			cr.Post("/delete", carts.Delete)
		})

		sr.Mount("/account", accounts.Routes())
	})

	return r
}

type pinger interface {
	Ping(ctx context.Context) error
}

func readyz(deps Deps, log *zap.Logger) http.HandlerFunc {
	checks := []struct {
		name string
		p    pinger
	}{
		{"catalog", deps.Catalog},
		{"sessions", deps.Sessions.Store},
		{"accounts", deps.Users},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		for _, c := range checks {
			if err := c.p.Ping(ctx); err != nil {
				log.Warn("readyz failed: "+c.name, zap.Error(err))
				kit.WriteError(w, r, http.StatusServiceUnavailable, c.name+" not ready", nil)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
