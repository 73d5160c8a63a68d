package catalog

import (
	"net/http"

	"BigCorp/pkg/kit"
)

// NewHandler serves the catalog JSON API behind the shared service router.
func NewHandler(s *Server, deps kit.HTTPDeps) http.Handler {
	if s.Log == nil {
		s.Log = deps.Log
	}

	r := kit.NewRouter(deps)
	r.Mount("/", s.Routes())
	return r
}
