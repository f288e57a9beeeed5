// Package csrf implements stateless double-submit CSRF protection.
//
// Each client holds a random per-session secret in an HMAC-signed cookie.
// Tokens are minted server-side by binding that secret to a nonce and a
// timestamp under a second, server-only signing key:
//
//	token = base64url( nonce | unixSeconds | HMAC-SHA256(signingKey, nonce+ts+secret) )
//
// A protected request must present the token (header or form field) while
// the browser automatically sends the secret cookie; the server recomputes
// the MAC from both and accepts only if they were issued together. Nothing
// is stored server-side, so verification is multi-instance safe.
package csrf

import (
	"net/http"
	"time"
)

// Config tunes the protector. SigningKey and CookieKey are the only required
// fields; everything else has a production-safe default.
type Config struct {
	// SigningKey signs minted tokens. Minimum 32 bytes, enforced by New.
	SigningKey []byte
	// CookieKey signs the per-client secret cookie. Minimum 32 bytes.
	CookieKey []byte

	// Cookie carrying the per-client secret.
	CookieName   string // default "_csrf_secret"
	CookiePath   string // default "/"
	CookieDomain string
	CookieSecure bool
	CookieMaxAge int // seconds; default 86400 (24h)

	// Token transport on protected requests. Header wins over form field.
	HeaderName string // default "x-csrf-token"
	FormField  string // default "_csrf"

	// TokenTTL bounds token validity. Default 2h.
	TokenTTL time.Duration

	// ProtectedMethods require a valid token. Default POST, PUT, PATCH, DELETE.
	ProtectedMethods []string
}

// Protector mints and verifies tokens and exposes the HTTP middleware.
type Protector struct {
	cfg       Config
	protected map[string]bool
}

// KeyError reports a missing or too-short key at construction time.
// Startup must fail fast on it; a weak CSRF key is not a recoverable state.
type KeyError struct{ Field string }

func (e *KeyError) Error() string {
	return "csrf: " + e.Field + " must be at least 32 bytes"
}

// New validates keys, fills defaults, and returns a ready Protector.
func New(cfg Config) (*Protector, error) {
	if len(cfg.SigningKey) < 32 {
		return nil, &KeyError{Field: "SigningKey"}
	}
	if len(cfg.CookieKey) < 32 {
		return nil, &KeyError{Field: "CookieKey"}
	}

	if cfg.CookieName == "" {
		cfg.CookieName = "_csrf_secret"
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = "/"
	}
	if cfg.CookieMaxAge == 0 {
		cfg.CookieMaxAge = 24 * 60 * 60
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = "x-csrf-token"
	}
	if cfg.FormField == "" {
		cfg.FormField = "_csrf"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 2 * time.Hour
	}
	if len(cfg.ProtectedMethods) == 0 {
		cfg.ProtectedMethods = []string{
			http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete,
		}
	}

	protected := make(map[string]bool, len(cfg.ProtectedMethods))
	for _, m := range cfg.ProtectedMethods {
		protected[m] = true
	}

	return &Protector{cfg: cfg, protected: protected}, nil
}

// Protected reports whether the method requires token verification.
func (p *Protector) Protected(method string) bool {
	return p.protected[method]
}
