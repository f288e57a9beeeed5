// middleware.go -- HTTP-layer middleware: request logging, panic recovery,
// security headers, rate limiting, and the not-found/method-not-allowed
// terminal handlers.
//
// Ordering matters: requestctx.Middleware must run before RequestLogger and
// Recoverer so their log lines and envelopes carry the correlation id.
package httpx

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/finora-app/finora/internal/requestctx"
)

// RequestLogger emits one structured log line per completed request.
// Uses chi's WrapResponseWriter to capture status and bytes written.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			reqID, _ := requestctx.FromContext(r.Context())
			slog.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"ip", r.RemoteAddr,
				"request_id", reqID,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// Recoverer is the terminal error boundary: any panic during request
// handling is logged with the request id and converted into the generic 500
// envelope. No error escapes as an unstructured response.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				reqID, _ := requestctx.FromContext(r.Context())
				slog.Error("panic recovered",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", reqID,
				)
				RespondError(w, r, KindUnexpected, nil)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders sets baseline hardening headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

// RateLimiter reports whether the caller identified by key may proceed.
// Satisfied by *store.RedisRateLimiter and *store.NoopRateLimiter --
// defined here (at the consumer) per Go convention.
type RateLimiter interface {
	// Allow records an attempt and returns false when the key is over budget.
	// An error means the limiter backend failed, not that the caller is blocked.
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit applies a per-client-IP request budget. Backend failures fail
// open with a warning: an unreachable Redis must not take the API down.
func RateLimit(rl RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			ok, err := rl.Allow(r.Context(), "ip:"+ip)
			if err != nil {
				reqID, _ := requestctx.FromContext(r.Context())
				slog.Warn("rate limiter unavailable, failing open", "error", err, "request_id", reqID)
			} else if !ok {
				RespondError(w, r, KindRateLimited, nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// NotFound is the terminal handler for unmatched routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	RespondError(w, r, KindNotFound, nil)
}

// MethodNotAllowed reuses the not-found envelope; the route space is not
// worth enumerating for a caller probing with the wrong verb.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	RespondError(w, r, KindNotFound, nil)
}
