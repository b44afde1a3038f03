package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const SessionCookie = "storefront_session"

type sessionKey struct{}

type sessionHolder struct {
	s         *domain.Session
	destroyed bool
}

// RequestLogger stores a logger carrying the request id in the context and logs
// each completed request.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			l := base.With(zap.String("request_id", middleware.GetReqID(r.Context())))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), l)))

			l.Info("request_completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

// SessionManager binds requests to sessions kept in a SessionCache.
type SessionManager struct {
	store  cache.SessionCache
	secure bool
	ttl    time.Duration
}

func NewSessionManager(store cache.SessionCache, secure bool, ttl time.Duration) *SessionManager {
	return &SessionManager{store: store, secure: secure, ttl: ttl}
}

// Middleware loads the caller's session from the cookie, starting a new one when
// there is none, and saves it back after the handler ran.
func (m *SessionManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.FromContext(ctx)

		var sess *domain.Session
		if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
			sess, err = m.store.Get(ctx, c.Value)
			if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
				log.Error("session_load_failed", zap.Error(err))
				respondError(w, http.StatusServiceUnavailable, "session_unavailable", "session store unavailable")
				return
			}
		}
		if sess == nil {
			sess = domain.NewSession(uuid.NewString())
		}
		http.SetCookie(w, m.cookie(sess.ID))

		h := &sessionHolder{s: sess}
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionKey{}, h)))

		// the request may have been cancelled by the time the handler returns
		saveCtx := context.WithoutCancel(ctx)
		if h.destroyed {
			if err := m.store.Delete(saveCtx, h.s.ID); err != nil {
				log.Error("session_delete_failed", zap.Error(err))
			}
			return
		}
		if err := m.store.Set(saveCtx, h.s); err != nil {
			log.Error("session_save_failed", zap.Error(err))
		}
	})
}

func (m *SessionManager) cookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func sessionFrom(ctx context.Context) *domain.Session {
	if h, ok := ctx.Value(sessionKey{}).(*sessionHolder); ok {
		return h.s
	}
	return nil
}

// Renew swaps the request's session for a fresh one, so a login never reuses a
// session id issued before authentication. The old record is dropped.
func (m *SessionManager) Renew(w http.ResponseWriter, r *http.Request) *domain.Session {
	ctx := r.Context()
	h, ok := ctx.Value(sessionKey{}).(*sessionHolder)
	if !ok {
		return nil
	}
	if err := m.store.Delete(ctx, h.s.ID); err != nil {
		logger.FromContext(ctx).Warn("session_delete_failed", zap.Error(err))
	}
	h.s = domain.NewSession(uuid.NewString())
	w.Header().Del("Set-Cookie")
	http.SetCookie(w, m.cookie(h.s.ID))
	return h.s
}

func destroySession(ctx context.Context) {
	if h, ok := ctx.Value(sessionKey{}).(*sessionHolder); ok {
		h.destroyed = true
	}
}

// principalFrom returns the authenticated caller, or nil.
func principalFrom(ctx context.Context) *domain.Principal {
	if s := sessionFrom(ctx); s != nil {
		return s.Principal
	}
	return nil
}

// RequireRole rejects requests whose session is not logged in with role.
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := principalFrom(r.Context())
			if p == nil {
				respondError(w, http.StatusUnauthorized, "unauthorized", "login required")
				return
			}
			if p.Role != role {
				respondError(w, http.StatusForbidden, "permission_denied", "not allowed for this account")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
