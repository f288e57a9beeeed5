// secret.go -- per-client secret cookie.
//
// The secret is 32 random bytes, delivered as "<base64 secret>.<base64 mac>"
// where the MAC is HMAC-SHA256 under the cookie key. The server keeps no
// copy; a tampered or garbled cookie simply reads back as absent and the
// client has to re-mint.
package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const secretLen = 32

// clientSecret reads and authenticates the secret from the request cookie.
// Returns (nil, false) for a missing, malformed, or forged cookie.
func (p *Protector) clientSecret(r *http.Request) ([]byte, bool) {
	c, err := r.Cookie(p.cfg.CookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}

	value, macPart, found := strings.Cut(c.Value, ".")
	if !found {
		return nil, false
	}
	secret, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || len(secret) != secretLen {
		return nil, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(macPart)
	if err != nil {
		return nil, false
	}

	if !hmac.Equal(sig, p.signSecret(secret)) {
		return nil, false
	}
	return secret, true
}

// ensureSecret returns the request's authenticated secret, minting and
// setting a fresh one on the response when none is presented.
func (p *Protector) ensureSecret(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if secret, ok := p.clientSecret(r); ok {
		return secret, nil
	}

	secret := make([]byte, secretLen)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generating csrf secret: %w", err)
	}

	value := base64.RawURLEncoding.EncodeToString(secret) +
		"." + base64.RawURLEncoding.EncodeToString(p.signSecret(secret))

	http.SetCookie(w, &http.Cookie{
		Name:     p.cfg.CookieName,
		Value:    value,
		Path:     p.cfg.CookiePath,
		Domain:   p.cfg.CookieDomain,
		MaxAge:   p.cfg.CookieMaxAge,
		HttpOnly: true,
		Secure:   p.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	return secret, nil
}

// signSecret computes the cookie MAC for a secret.
func (p *Protector) signSecret(secret []byte) []byte {
	mac := hmac.New(sha256.New, p.cfg.CookieKey)
	mac.Write(secret)
	return mac.Sum(nil)
}
