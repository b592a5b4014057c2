package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/lockerkeeper/internal/common"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/auth"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/sessions"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/views"
)

type ctxKey string

const sessionKey ctxKey = "session"

const maxFormBytes = 64 << 10

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withLogging wraps a handler with request logging.
func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		h.logger.Info(r.Context(), "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// withSession attaches the visitor session to the request context. A
// missing, badly signed or expired cookie, or one naming a session the
// store no longer has, starts a new session and sets a fresh cookie. A
// full store answers 503.
func (h *Handler) withSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := h.sessionFromCookie(r)

		if sess == nil {
			var err error
			sess, err = h.store.Create()
			if errors.Is(err, common.ErrSessionLimit) {
				h.logger.Warn(r.Context(), "session limit reached", "error", err)
				w.Header().Set("Retry-After", "60")
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
			if err != nil {
				h.logger.Error(r.Context(), "create session", "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			token, err := auth.GenerateToken(sess.ID(), h.opts.CookieKey, h.opts.CookieExpiry)
			if err != nil {
				h.logger.Error(r.Context(), "sign session cookie", "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     h.opts.CookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(h.opts.CookieExpiry.Seconds()),
				HttpOnly: true,
				Secure:   h.opts.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
			h.logger.Debug(r.Context(), "session started", "session", sess.ID())
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) sessionFromCookie(r *http.Request) *sessions.Session {
	c, err := r.Cookie(h.opts.CookieName)
	if err != nil {
		return nil
	}

	id, err := auth.GetSessionIDFromToken(c.Value, h.opts.CookieKey)
	if err != nil {
		h.logger.Debug(r.Context(), "session cookie rejected", "error", err)
		return nil
	}

	sess, ok := h.store.Get(id)
	if !ok {
		return nil
	}
	return sess
}

// withCSRF rejects a form post whose csrf_token does not match the session.
func (h *Handler) withCSRF(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		sess := sessionFrom(r.Context())
		got := r.PostFormValue(common.CSRFFieldName)

		if subtle.ConstantTimeCompare([]byte(got), []byte(sess.CSRFToken())) != 1 {
			h.logger.Warn(r.Context(), "csrf token mismatch", "path", r.URL.Path)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// withAdmin lets the request through only for the administrator identity.
func (h *Handler) withAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r.Context())

		var admin bool
		sess.Do(func(s *sessions.Session) {
			admin = views.IsAdmin(s.Auth, h.opts.AdminUser)
		})

		if !admin {
			h.logger.Warn(r.Context(), "admin operation refused", "path", r.URL.Path)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func sessionFrom(ctx context.Context) *sessions.Session {
	sess, _ := ctx.Value(sessionKey).(*sessions.Session)
	return sess
}
