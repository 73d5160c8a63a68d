package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type ctxKey struct{}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// Manager loads the visitor's session before a request and persists it
// when the handler modified it.
type Manager struct {
	Store      Store
	Log        *zap.Logger
	CookieName string
	TTL        time.Duration
	Secure     bool

	now func() time.Time
}

func NewManager(store Store, log *zap.Logger, cookieName string, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		Store:      store,
		Log:        log,
		CookieName: cookieName,
		TTL:        ttl,
		Secure:     secure,
		now:        time.Now,
	}
}

func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.load(r)

		cw := &commitWriter{ResponseWriter: w, m: m, r: r, sess: sess}
		next.ServeHTTP(cw, r.WithContext(WithSession(r.Context(), sess)))

		if !cw.committed {
			cw.commit()
			return
		}
		if sess.Modified() {
			// Modified after the headers went out: the cookie cannot change
			// any more, but the data still has to reach the store.
			if err := m.save(r.Context(), sess); err != nil {
				m.Log.Error("session save failed", zap.Error(err), zap.String("session_id", sess.ID()))
			}
		}
	})
}

func (m *Manager) load(r *http.Request) *Session {
	c, err := r.Cookie(m.CookieName)
	if err != nil || c.Value == "" {
		return New()
	}

	sess, err := m.Store.Load(r.Context(), c.Value)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.Log.Warn("session load failed", zap.Error(err))
		}
		return New()
	}
	return sess
}

func (m *Manager) save(ctx context.Context, sess *Session) error {
	if sess.Empty() {
		for _, id := range append(sess.staleIDs, sess.id) {
			if err := m.Store.Delete(ctx, id); err != nil {
				return err
			}
		}
	} else if err := m.Store.Save(ctx, sess, m.now().Add(m.TTL)); err != nil {
		return err
	}

	sess.staleIDs = nil
	sess.modified = false
	sess.isNew = false
	return nil
}

func (m *Manager) cookie(sess *Session) *http.Cookie {
	c := &http.Cookie{
		Name:     m.CookieName,
		Value:    sess.ID(),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.TTL.Seconds()),
	}
	if sess.Empty() {
		c.Value = ""
		c.MaxAge = -1
	}
	return c
}

// RunJanitor purges expired sessions every interval until ctx is done. It
// is a no-op for stores that do not implement Purger.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) {
	p, ok := m.Store.(Purger)
	if !ok {
		return
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := p.PurgeExpired(ctx)
			if err != nil {
				m.Log.Warn("session purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				m.Log.Info("expired sessions purged", zap.Int64("count", n))
			}
		}
	}
}

// commitWriter persists a modified session and sets its cookie right before
// the response headers are written.
type commitWriter struct {
	http.ResponseWriter
	m         *Manager
	r         *http.Request
	sess      *Session
	committed bool
}

func (w *commitWriter) commit() {
	if w.committed {
		return
	}
	w.committed = true

	if !w.sess.Modified() {
		return
	}
	if w.sess.Empty() && w.sess.IsNew() && len(w.sess.staleIDs) == 0 {
		return
	}

	if err := w.m.save(w.r.Context(), w.sess); err != nil {
		w.m.Log.Error("session save failed", zap.Error(err), zap.String("session_id", w.sess.ID()))
		return
	}
	http.SetCookie(w.ResponseWriter, w.m.cookie(w.sess))
}

func (w *commitWriter) WriteHeader(code int) {
	w.commit()
	w.ResponseWriter.WriteHeader(code)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(b)
}

func (w *commitWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
