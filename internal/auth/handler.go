// handler.go -- HTTP handlers for the /api/v1/auth/* endpoints.
package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/finora-app/finora/internal/httpx"
	"github.com/finora-app/finora/internal/store"
)

// Handler adapts the Service to HTTP. CSRF and rate limiting live in
// middleware; by the time a request lands here it is already trusted.
type Handler struct {
	Svc *Service
}

// SignUp handles POST /api/v1/auth/signup.
// 201 with the new user, 400 with field details for shape violations,
// 409 for a duplicate email, 500 otherwise.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var in SignUpInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logWarn(r, "failed to decode signup input", "error", err)
		httpx.RespondError(w, r, httpx.KindValidation,
			[]FieldError{{Field: "body", Message: "must be valid JSON"}})
		return
	}

	if fieldErrs := CheckInput(in); fieldErrs != nil {
		httpx.RespondError(w, r, httpx.KindValidation, fieldErrs)
		return
	}

	user, err := h.Svc.SignUp(r.Context(), in)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			logInfo(r, "signup attempted with existing email")
			httpx.RespondError(w, r, httpx.KindDuplicateEmail, nil)
			return
		}
		logError(r, "signup failed", "error", err)
		httpx.RespondError(w, r, httpx.KindUnexpected, nil)
		return
	}

	logInfo(r, "user signed up", "user_id", user.ID)
	httpx.Respond(w, r, http.StatusCreated, user)
}

// SignIn handles POST /api/v1/auth/signin.
// 200 with the user minus the hash, 400 for shape violations, 401 with one
// generic message for every credential failure, 500 otherwise.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var in SignInInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logWarn(r, "failed to decode signin input", "error", err)
		httpx.RespondError(w, r, httpx.KindValidation,
			[]FieldError{{Field: "body", Message: "must be valid JSON"}})
		return
	}

	if fieldErrs := CheckInput(in); fieldErrs != nil {
		httpx.RespondError(w, r, httpx.KindValidation, fieldErrs)
		return
	}

	user, err := h.Svc.SignIn(r.Context(), in)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logInfo(r, "signin rejected")
			httpx.RespondError(w, r, httpx.KindInvalidCredentials, nil)
			return
		}
		logError(r, "signin failed", "error", err)
		httpx.RespondError(w, r, httpx.KindUnexpected, nil)
		return
	}

	logInfo(r, "user signed in", "user_id", user.ID)
	httpx.Respond(w, r, http.StatusOK, user)
}
