// middleware.go -- the HTTP enforcement layer.
//
// Protect gates state-changing methods behind token verification; the token
// endpoint (TokenHandler) is a plain GET and is expected to be registered
// outside the protected set. Cookie parsing needs nothing special; form
// bodies are parsed lazily only when the header carries no token.
package csrf

import (
	"log/slog"
	"net/http"

	"github.com/finora-app/finora/internal/httpx"
	"github.com/finora-app/finora/internal/requestctx"
)

// Protect enforces the double-submit check on protected methods.
// Safe methods pass untouched. Any verification failure halts the pipeline
// with the generic 403 envelope -- callers never learn which check failed.
func (p *Protector) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !p.protected[r.Method] {
			next.ServeHTTP(w, r)
			return
		}

		secret, ok := p.clientSecret(r)
		if !ok {
			p.reject(w, r, "missing_or_invalid_secret_cookie")
			return
		}

		token := p.extractToken(r)
		if token == "" {
			p.reject(w, r, "missing_token")
			return
		}

		if err := p.Verify(token, secret); err != nil {
			p.reject(w, r, err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// TokenHandler serves the token-fetch endpoint: ensures the secret cookie
// exists, mints a token bound to it, and returns the token in the envelope
// so SPAs can attach it to subsequent mutating requests.
func (p *Protector) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		secret, err := p.ensureSecret(w, r)
		if err != nil {
			reqID, _ := requestctx.FromContext(r.Context())
			slog.Error("failed to establish csrf secret", "error", err, "request_id", reqID)
			httpx.RespondError(w, r, httpx.KindUnexpected, nil)
			return
		}

		token, err := p.Mint(secret)
		if err != nil {
			reqID, _ := requestctx.FromContext(r.Context())
			slog.Error("failed to mint csrf token", "error", err, "request_id", reqID)
			httpx.RespondError(w, r, httpx.KindUnexpected, nil)
			return
		}

		httpx.Respond(w, r, http.StatusOK, map[string]string{"csrfToken": token})
	}
}

// extractToken pulls the client token from the header, falling back to the
// form field for classic form posts. Header wins.
func (p *Protector) extractToken(r *http.Request) string {
	if h := r.Header.Get(p.cfg.HeaderName); h != "" {
		return h
	}
	_ = r.ParseForm()
	return r.PostForm.Get(p.cfg.FormField)
}

// reject logs the precise failure server-side and emits the generic envelope.
func (p *Protector) reject(w http.ResponseWriter, r *http.Request, reason string) {
	reqID, _ := requestctx.FromContext(r.Context())
	slog.Warn("csrf verification failed",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", reqID,
	)
	httpx.RespondError(w, r, httpx.KindCSRFInvalid, nil)
}
