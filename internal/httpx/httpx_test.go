// httpx_test.go

// unit tests for the envelope writers and the shared middleware.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finora-app/finora/internal/requestctx"
)

// decodeEnvelope unmarshals a recorded response body into an Envelope with
// raw data/details left as generic JSON values.
func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not a valid envelope: %v (body %q)", err, w.Body.String())
	}
	return env
}

// --- Respond / RespondError ---

func TestRespond(t *testing.T) {
	t.Run("success envelope with request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(requestctx.With(req.Context(), "rid-1"))
		w := httptest.NewRecorder()

		Respond(w, req, http.StatusOK, map[string]string{"hello": "world"})

		if w.Code != http.StatusOK {
			t.Errorf("status: expected 200, got %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type: expected application/json, got %q", ct)
		}
		env := decodeEnvelope(t, w)
		if !env.Success {
			t.Error("success: expected true")
		}
		if env.Error != nil {
			t.Errorf("error: expected null, got %+v", env.Error)
		}
		if env.Meta.RequestID != "rid-1" {
			t.Errorf("meta.requestId: expected rid-1, got %q", env.Meta.RequestID)
		}
		if env.Meta.Timestamp == "" {
			t.Error("meta.timestamp: expected non-empty")
		}
	})

	t.Run("request id omitted outside a request scope", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		Respond(w, req, http.StatusOK, nil)

		env := decodeEnvelope(t, w)
		if env.Meta.RequestID != "" {
			t.Errorf("meta.requestId: expected empty, got %q", env.Meta.RequestID)
		}
	})
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		kind   Kind
		status int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindCSRFInvalid, http.StatusForbidden},
		{KindInvalidCredentials, http.StatusUnauthorized},
		{KindDuplicateEmail, http.StatusConflict},
		{KindNotFound, http.StatusNotFound},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindUnexpected, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			w := httptest.NewRecorder()

			RespondError(w, req, tc.kind, nil)

			if w.Code != tc.status {
				t.Errorf("status: expected %d, got %d", tc.status, w.Code)
			}
			env := decodeEnvelope(t, w)
			if env.Success {
				t.Error("success: expected false")
			}
			if env.Error == nil {
				t.Fatal("error: expected non-nil")
			}
			if env.Error.Code != tc.kind {
				t.Errorf("error.code: expected %s, got %s", tc.kind, env.Error.Code)
			}
			if env.Error.Message == "" {
				t.Error("error.message: expected non-empty")
			}
		})
	}

	t.Run("validation details pass through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		w := httptest.NewRecorder()

		RespondError(w, req, KindValidation, []map[string]string{{"field": "email", "message": "invalid"}})

		env := decodeEnvelope(t, w)
		if env.Error.Details == nil {
			t.Error("details: expected non-nil for validation errors")
		}
	})
}

// --- Recoverer ---

func TestRecoverer(t *testing.T) {
	t.Run("panic becomes 500 envelope", func(t *testing.T) {
		h := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(errors.New("boom"))
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("status: expected 500, got %d", w.Code)
		}
		env := decodeEnvelope(t, w)
		if env.Error == nil || env.Error.Code != KindUnexpected {
			t.Errorf("expected %s envelope, got %+v", KindUnexpected, env.Error)
		}
	})

	t.Run("no panic passes through untouched", func(t *testing.T) {
		h := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if w.Code != http.StatusTeapot {
			t.Errorf("status: expected 418, got %d", w.Code)
		}
	})
}

// --- SecurityHeaders ---

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	} {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s: expected %q, got %q", header, want, got)
		}
	}
}

// --- RateLimit ---

// stubLimiter counts calls and returns a scripted verdict.
type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

func TestRateLimit(t *testing.T) {
	pass := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allowed request passes", func(t *testing.T) {
		rl := &stubLimiter{allow: true}
		w := httptest.NewRecorder()
		RateLimit(rl)(pass).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if w.Code != http.StatusOK {
			t.Errorf("status: expected 200, got %d", w.Code)
		}
		if len(rl.keys) != 1 {
			t.Fatalf("expected one limiter call, got %d", len(rl.keys))
		}
	})

	t.Run("blocked request gets 429 envelope", func(t *testing.T) {
		rl := &stubLimiter{allow: false}
		w := httptest.NewRecorder()
		RateLimit(rl)(pass).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if w.Code != http.StatusTooManyRequests {
			t.Errorf("status: expected 429, got %d", w.Code)
		}
		env := decodeEnvelope(t, w)
		if env.Error == nil || env.Error.Code != KindRateLimited {
			t.Errorf("expected %s envelope, got %+v", KindRateLimited, env.Error)
		}
	})

	t.Run("limiter failure fails open", func(t *testing.T) {
		rl := &stubLimiter{allow: false, err: errors.New("redis down")}
		w := httptest.NewRecorder()
		RateLimit(rl)(pass).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if w.Code != http.StatusOK {
			t.Errorf("status: expected 200 (fail open), got %d", w.Code)
		}
	})
}
