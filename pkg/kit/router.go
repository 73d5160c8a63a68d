package kit

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HTTPDeps carries what every service router needs. A nil Registry turns
// metrics off; MetricsEnabled additionally exposes /metrics.
type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

// NewRouter returns a chi router with request ids, panic recovery, request
// logging and, when configured, request metrics and /metrics.
func NewRouter(deps HTTPDeps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Recoverer)
	r.Use(Logging(deps.Log))

	if deps.Registry == nil {
		return r
	}

	r.Use(NewMetrics(deps.Registry).Middleware(deps.Service))
	if deps.MetricsEnabled {
		r.With(MetricsAuth(deps.MetricsToken)).
			Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}
	return r
}
