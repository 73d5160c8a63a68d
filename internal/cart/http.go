package cart

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"BigCorp/internal/session"
	"BigCorp/pkg/kit"
)

type ctxKey struct{}

// FromContext returns the cart Attach built for this request.
func FromContext(ctx context.Context) (*Cart, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Cart)
	return c, ok
}

// Attach builds the visitor's cart once per request from the session the
// session middleware put in the context. It must run after that middleware.
func Attach(lookup ProductLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			c := New(sess, lookup)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, c)))
		})
	}
}

// mutationForm mirrors the fields the cart buttons post.
type mutationForm struct {
	Action    string `form:"action"`
	ProductID int64  `form:"product_id"`
	Quantity  int    `form:"product_quantity"`
}

type addResponse struct {
	Quantity int    `json:"quantity"`
	Product  string `json:"product"`
}

type totalResponse struct {
	Quantity int    `json:"quantity"`
	Total    string `json:"total"`
}

// Server exposes the add, update and delete endpoints. The routes expect
// Attach further up the chain.
type Server struct {
	Products ProductGetter
	Log      *zap.Logger
	Metrics  *Metrics
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/add", s.Add)
	r.Post("/update", s.Update)
	r.Post("/delete", s.Delete)
	return r
}

// Add puts a product in the cart at the posted quantity.
func (s *Server) Add(w http.ResponseWriter, r *http.Request) {
	c, in, ok := s.decode(w, r, true)
	if !ok {
		return
	}

	p, found, err := s.Products.GetProduct(r.Context(), in.ProductID)
	if err != nil {
		s.Log.Error("get product failed", zap.Error(err), zap.Int64("product_id", in.ProductID))
		kit.WriteError(w, r, http.StatusBadGateway, "catalog unavailable", nil)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "product not found", map[string]any{"product_id": in.ProductID})
		return
	}

	c.Add(p, in.Quantity)
	s.Metrics.observe("add", true)

	kit.WriteJSON(w, http.StatusOK, addResponse{Quantity: c.Len(), Product: p.Title})
}

func (s *Server) Update(w http.ResponseWriter, r *http.Request) {
	c, in, ok := s.decode(w, r, true)
	if !ok {
		return
	}

	changed := c.Update(strconv.FormatInt(in.ProductID, 10), in.Quantity)
	s.Metrics.observe("update", changed)

	kit.WriteJSON(w, http.StatusOK, totalResponse{Quantity: c.Len(), Total: c.TotalPrice().StringFixed(2)})
}

func (s *Server) Delete(w http.ResponseWriter, r *http.Request) {
	c, in, ok := s.decode(w, r, false)
	if !ok {
		return
	}

	changed := c.Delete(strconv.FormatInt(in.ProductID, 10))
	s.Metrics.observe("delete", changed)

	kit.WriteJSON(w, http.StatusOK, totalResponse{Quantity: c.Len(), Total: c.TotalPrice().StringFixed(2)})
}

// decode validates the posted form. It writes the error response itself and
// reports false when the request should stop.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, needQuantity bool) (*Cart, mutationForm, bool) {
	var in mutationForm

	c, ok := FromContext(r.Context())
	if !ok {
		s.Log.Error("cart missing from request context")
		kit.WriteError(w, r, http.StatusInternalServerError, "internal error", nil)
		return nil, in, false
	}

	if err := kit.DecodeForm(w, r, &in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad form", nil)
		return nil, in, false
	}
	if in.Action != "post" {
		kit.WriteError(w, r, http.StatusBadRequest, "bad action", map[string]any{"action": in.Action})
		return nil, in, false
	}
	if in.ProductID <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "bad product_id", nil)
		return nil, in, false
	}
	if needQuantity && in.Quantity < 1 {
		kit.WriteError(w, r, http.StatusBadRequest, "bad product_quantity", map[string]any{"min": 1})
		return nil, in, false
	}
	return c, in, true
}
