package httpserver

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"soarfare/internal/adapters/observability"
	"soarfare/internal/domain"
)

const (
	SessionCookie = "soarfare_session"
	sessionIDKey  = "sid"
)

func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return http.TimeoutHandler(next, d, "timeout") }
}

// ---- status-recording ResponseWriter ----

type srw struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *srw) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *srw) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *srw) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func routeOf(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// ---- Metrics middleware ----

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &srw{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		observability.ObserveHTTP(routeOf(r), r.Method, sw.Status(), time.Since(start))
	})
}

// ---- Structured logging middleware ----

func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &srw{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			l.Info().
				Str("route", routeOf(r)).
				Str("method", r.Method).
				Int("status", sw.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("remote", remoteIP(r)).
				Str("ua", r.UserAgent()).
				Msg("http_request")
		})
	}
}

// Picks first X-Forwarded-For IP, else X-Real-IP, else RemoteAddr host.
func remoteIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// ---- request context ----

type ctxKey int

const (
	ctxSID ctxKey = iota
	ctxToken
)

func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, ctxSID, sid)
}

// SessionID returns the booking session id, or "" outside the Session middleware.
func SessionID(ctx context.Context) string {
	sid, _ := ctx.Value(ctxSID).(string)
	return sid
}

func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxToken, token)
}

func Token(ctx context.Context) string {
	tok, _ := ctx.Value(ctxToken).(string)
	return tok
}

// ---- session & auth middlewares ----

// Session gives every browser a stable id in a signed cookie. The id keys
// the booking steps kept in the session store.
func Session(store sessions.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := store.Get(r, SessionCookie)
			if err != nil {
				// tampered or rotated key: start over with a fresh cookie
				log.Debug().Err(err).Msg("session cookie rejected")
			}
			sid, _ := sess.Values[sessionIDKey].(string)
			if sid == "" {
				sid = uuid.NewString()
				sess.Values[sessionIDKey] = sid
				if err := sess.Save(r, w); err != nil {
					log.Error().Err(err).Msg("save session cookie failed")
				}
			}
			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sid)))
		})
	}
}

// Bearer copies the Authorization bearer token into the context.
func Bearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			if tok := strings.TrimSpace(h[7:]); tok != "" {
				r = r.WithContext(WithToken(r.Context(), tok))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Token(r.Context()) == "" {
			writeFail(w, http.StatusUnauthorized, "Unauthenticated.", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession guards routes that read or write the visitor's session.
// It re-issues the cookie so its lifetime follows the stored session's.
func RequireSession(store sessions.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := SessionID(r.Context())
			if sid == "" || store == nil {
				writeError(w, domain.ErrNoSession)
				return
			}
			sess, err := store.Get(r, SessionCookie)
			if err != nil {
				log.Debug().Err(err).Msg("session cookie rejected")
			}
			sess.Values[sessionIDKey] = sid
			if err := sess.Save(r, w); err != nil {
				log.Error().Err(err).Msg("refresh session cookie failed")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewCookieStore builds the signed cookie store for Session.
func NewCookieStore(key []byte, ttl time.Duration, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(key)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.MaxAge = int(ttl.Seconds())
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}
