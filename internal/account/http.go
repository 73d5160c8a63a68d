package account

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"BigCorp/internal/session"
	"BigCorp/pkg/kit"
)

// SessionUserKey is the session slot holding the logged-in user id.
const SessionUserKey = "user_id"

const (
	defaultTokenTTL = 15 * time.Minute

	loginLimitPerMin    = 5
	registerLimitPerMin = 3
	limitWindow         = time.Minute
)

type Server struct {
	Log      *zap.Logger
	Users    UserStore
	JWT      *TokenMaker
	TokenTTL time.Duration
}

// Routes serves the account endpoints. login and logout need the session
// middleware further up the chain.
func (s *Server) Routes() http.Handler {
	loginLimiter := kit.NewIPRateLimiter(loginLimitPerMin, limitWindow)
	registerLimiter := kit.NewIPRateLimiter(registerLimitPerMin, limitWindow)

	r := chi.NewRouter()
	r.With(registerLimiter.Middleware).Post("/register", s.handleRegister)
	r.With(loginLimiter.Middleware).Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.With(RequireToken(s.JWT)).Get("/whoami", s.handleWhoAmI)
	return r
}

type userResp struct {
	ID       string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var f RegisterForm
	if err := kit.DecodeForm(w, r, &f); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad form", nil)
		return
	}
	if errs := f.Clean(); len(errs) > 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid form", errs)
		return
	}

	u, err := s.Users.Create(r.Context(), User{
		ID:       "u_" + uuid.NewString(),
		Username: f.Username,
		Email:    f.Email,
	}, f.Password1)
	switch {
	case errors.Is(err, ErrEmailExists):
		kit.WriteError(w, r, http.StatusConflict, err.Error(), map[string]string{"email": "taken"})
		return
	case errors.Is(err, ErrUsernameExists):
		kit.WriteError(w, r, http.StatusConflict, err.Error(), map[string]string{"username": "taken"})
		return
	case err != nil:
		s.Log.Error("create user failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, userResp{ID: u.ID, Username: u.Username, Email: u.Email})
}

type loginResp struct {
	AccessToken string `json:"access_token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		s.Log.Error("session missing from request context")
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	var f LoginForm
	if err := kit.DecodeForm(w, r, &f); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad form", nil)
		return
	}
	if errs := f.Clean(); len(errs) > 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid form", errs)
		return
	}

	u, err := s.Users.Verify(r.Context(), f.Username, f.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	if err != nil {
		s.Log.Error("verify user failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	tok, err := s.JWT.New(u, s.tokenTTL())
	if err != nil {
		s.Log.Error("token issue", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	var prev string
	if found, _ := sess.Get(SessionUserKey, &prev); found && prev != u.ID {
		sess.Flush()
	} else {
		sess.CycleID()
	}
	sess.Set(SessionUserKey, u.ID)
	kit.WriteJSON(w, http.StatusOK, loginResp{AccessToken: tok})
}

// handleLogout flushes the whole session, cart included.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := session.FromContext(r.Context()); ok {
		sess.Flush()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	kit.WriteJSON(w, http.StatusOK, userResp{ID: claims.UserID, Username: claims.Username, Email: claims.Email})
}

// CurrentUser resolves the user logged into the request's session.
func (s *Server) CurrentUser(ctx context.Context) (User, bool) {
	sess, ok := session.FromContext(ctx)
	if !ok {
		return User{}, false
	}

	var id string
	if found, err := sess.Get(SessionUserKey, &id); !found || err != nil || id == "" {
		return User{}, false
	}

	u, err := s.Users.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.Log.Warn("load session user failed", zap.Error(err), zap.String("session_id", sess.ID()))
		}
		return User{}, false
	}
	return u, true
}

func (s *Server) tokenTTL() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return defaultTokenTTL
}
