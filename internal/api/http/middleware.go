package http

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"equiprent-backend/internal/config"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/security"

	"github.com/gorilla/mux"
)

const callbackTokenHeader = "X-Callback-Token"

type actorKey struct{}

// ActorFromContext returns the authenticated caller placed by the auth middleware.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(domain.Actor)
	return a, ok
}

func withActor(ctx context.Context, a domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// authMiddleware enforces the security level configured for the matched route.
func authMiddleware(tm security.TokenManager, callbackToken string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tpl := ""
			if route := mux.CurrentRoute(r); route != nil {
				tpl, _ = route.GetPathTemplate()
			}
			level := config.RouteSecurity(r.Method, tpl)

			switch level {
			case config.SecurityPublic:
				next.ServeHTTP(w, r)
				return
			case config.SecurityCallback:
				got := r.Header.Get(callbackTokenHeader)
				if callbackToken == "" || subtle.ConstantTimeCompare([]byte(got), []byte(callbackToken)) != 1 {
					writeMessage(w, http.StatusUnauthorized, "invalid callback token")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				writeMessage(w, http.StatusUnauthorized, "authorization token is not provided")
				return
			}
			claims, err := tm.ValidateToken(token)
			if err != nil {
				logger.Debug("Rejected bearer token", "path", tpl, "error", err)
				writeMessage(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if level == config.SecurityAdmin && !claims.IsAdmin() {
				writeMessage(w, http.StatusForbidden, "admin role required")
				return
			}

			actor := domain.NewActor(claims.UserID, claims.IsAdmin())
			next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Panic while serving request", "method", r.Method, "path", r.URL.Path, "panic", rec)
				w.Header().Set("Connection", "close")
				writeMessage(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.InfoContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func withTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		next.ServeHTTP(w, r)
	})
}
