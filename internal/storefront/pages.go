package storefront

import (
	"bytes"
	"embed"
	"html/template"
	"iter"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"BigCorp/internal/cart"
	"BigCorp/internal/catalog"
	"BigCorp/pkg/kit"
)

//go:embed templates
var templateFolder embed.FS

var pageTemplates = map[string]*template.Template{
	"products":       parsePage("products.html"),
	"product_detail": parsePage("product_detail.html"),
	"category":       parsePage("category.html"),
	"cart":           parsePage("cart.html"),
	"not_found":      parsePage("not_found.html"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.ParseFS(templateFolder,
		"templates/base.html",
		"templates/partials.html",
		"templates/"+name,
	))
}

// page is what every template sees: the per-page fields plus the layout
// data every page gets (top-level categories, cart size, user).
type page struct {
	Categories []catalog.Category
	CartCount  int
	Username   string

	Products []catalog.Product
	Product  catalog.Product
	Category catalog.Category
	Items    iter.Seq[cart.Item]
	Total    decimal.Decimal
}

func (s *Server) products(w http.ResponseWriter, r *http.Request) {
	products, err := s.Catalog.ListProducts(r.Context())
	if err != nil {
		s.serverError(w, r, "list products failed", err)
		return
	}
	s.render(w, r, http.StatusOK, "products", page{Products: products})
}

func (s *Server) productDetail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	p, ok, err := s.Catalog.GetProductBySlug(r.Context(), slug)
	if err != nil {
		s.serverError(w, r, "get product failed", err, zap.String("slug", slug))
		return
	}
	if !ok {
		s.notFound(w, r)
		return
	}
	s.render(w, r, http.StatusOK, "product_detail", page{Product: p})
}

func (s *Server) categoryList(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	c, ok, err := s.Catalog.GetCategoryBySlug(r.Context(), slug)
	if err != nil {
		s.serverError(w, r, "get category failed", err, zap.String("slug", slug))
		return
	}
	if !ok {
		s.notFound(w, r)
		return
	}

	products, err := s.Catalog.ListByCategory(r.Context(), c.ID)
	if err != nil {
		s.serverError(w, r, "list category products failed", err, zap.Int64("category_id", c.ID))
		return
	}
	s.render(w, r, http.StatusOK, "category", page{Category: c, Products: products})
}

func (s *Server) cartView(w http.ResponseWriter, r *http.Request) {
	c, ok := cart.FromContext(r.Context())
	if !ok {
		s.serverError(w, r, "cart missing from request context", nil)
		return
	}

	items, err := c.Items(r.Context())
	if err != nil {
		s.serverError(w, r, "resolve cart items failed", err)
		return
	}
	s.render(w, r, http.StatusOK, "cart", page{Items: items, Total: c.TotalPrice()})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "not_found", page{})
}

// render fills in the layout data and writes the page. The page is rendered
// to a buffer first so a template error still yields a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	ctx := r.Context()

	categories, err := s.Catalog.TopLevelCategories(ctx)
	if err != nil {
		s.Log.Warn("load categories failed", zap.Error(err))
	}
	p.Categories = categories

	if c, ok := cart.FromContext(ctx); ok {
		p.CartCount = c.Len()
	}
	if s.Accounts != nil {
		if u, ok := s.Accounts.CurrentUser(ctx); ok {
			p.Username = u.Username
		}
	}

	var buf bytes.Buffer
	if err := pageTemplates[name].ExecuteTemplate(&buf, "base", p); err != nil {
		s.serverError(w, r, "render page failed", err, zap.String("page", name))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error, fields ...zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	s.Log.Error(msg, fields...)
	kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
}
