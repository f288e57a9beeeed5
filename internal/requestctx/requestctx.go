// Package requestctx binds a correlation id to the lifetime of one inbound
// request and makes it readable anywhere downstream without explicit
// parameter threading.
//
// The id rides on context.Context, so propagation to goroutines spawned
// during the request is free (pass the ctx) and concurrent requests can
// never observe each other's id. Outside a request scope FromContext
// reports absence — background jobs and startup code are expected callers.
package requestctx

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid/v5"
)

// HeaderName is the HTTP header carrying the correlation id in both
// directions: honored when a client or proxy sends it, echoed on every
// response so callers can quote it in bug reports.
const HeaderName = "X-Request-Id"

// ctxKey is unexported so no other package can collide with or forge the id.
type ctxKey struct{}

// With returns a derived context carrying the given request id.
func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the bound request id, or ("", false) outside any
// request scope. Absence is a valid state, never an error.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok
}

// Middleware assigns a correlation id to each inbound request.
// An inbound X-Request-Id is trusted as-is (upstream proxies set these);
// otherwise a random UUID is minted. Must run before any middleware that logs.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderName)
		if id == "" {
			u, err := uuid.NewV4()
			if err != nil {
				// rand failure is effectively unreachable; serve without an id
				// rather than failing the request.
				next.ServeHTTP(w, r)
				return
			}
			id = u.String()
		}

		w.Header().Set(HeaderName, id)
		next.ServeHTTP(w, r.WithContext(With(r.Context(), id)))
	})
}
