package catalog

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"BigCorp/pkg/kit"
)

const maxBatchIDs = 200

type Server struct {
	Store Reader
	Log   *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", kit.Healthz)
	r.Get("/readyz", s.readyz)

	r.Get("/products", s.listProducts)
	r.Get("/products/{id}", s.getProduct)
	r.Get("/categories", s.listCategories)
	r.Get("/categories/{slug}", s.getCategory)
	r.Get("/categories/{slug}/products", s.listCategoryProducts)

	return r
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		s.Log.Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// listProducts serves three shapes: all products, ?ids=1,2,3 for batched
// lookups and ?slug=x for a single product by slug.
func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if slug := q.Get("slug"); slug != "" {
		p, ok, err := s.Store.GetProductBySlug(r.Context(), slug)
		if err != nil {
			s.serverError(w, r, "get product by slug failed", err, zap.String("slug", slug))
			return
		}
		if !ok {
			kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"slug": slug})
			return
		}
		kit.WriteJSON(w, http.StatusOK, []Product{p})
		return
	}

	if raw, ok := q["ids"]; ok {
		ids, err := ParseIDs(strings.Join(raw, ","))
		if err != nil || len(ids) > maxBatchIDs {
			kit.WriteError(w, r, http.StatusBadRequest, "bad ids", map[string]any{"max": maxBatchIDs})
			return
		}
		products, err := s.Store.FindByIDs(r.Context(), ids)
		if err != nil {
			s.serverError(w, r, "find products failed", err)
			return
		}
		kit.WriteJSON(w, http.StatusOK, products)
		return
	}

	products, err := s.Store.ListProducts(r.Context())
	if err != nil {
		s.serverError(w, r, "list products failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad id", map[string]any{"id": raw})
		return
	}

	p, ok, err := s.Store.GetProduct(r.Context(), id)
	if err != nil {
		s.serverError(w, r, "get product failed", err, zap.Int64("id", id))
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.Store.TopLevelCategories(r.Context())
	if err != nil {
		s.serverError(w, r, "list categories failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, cats)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	c, ok := s.categoryBySlug(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, c)
}

func (s *Server) listCategoryProducts(w http.ResponseWriter, r *http.Request) {
	c, ok := s.categoryBySlug(w, r)
	if !ok {
		return
	}

	products, err := s.Store.ListByCategory(r.Context(), c.ID)
	if err != nil {
		s.serverError(w, r, "list category products failed", err, zap.String("slug", c.Slug))
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) categoryBySlug(w http.ResponseWriter, r *http.Request) (Category, bool) {
	slug := chi.URLParam(r, "slug")

	c, ok, err := s.Store.GetCategoryBySlug(r.Context(), slug)
	if err != nil {
		s.serverError(w, r, "get category failed", err, zap.String("slug", slug))
		return Category{}, false
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"slug": slug})
		return Category{}, false
	}
	return c, true
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error, fields ...zap.Field) {
	s.Log.Error(msg, append(fields, zap.Error(err))...)
	kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
}

// ParseIDs parses a comma separated list of product ids. Blank entries are
// skipped.
func ParseIDs(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
