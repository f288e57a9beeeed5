// errors.go -- Tagged error taxonomy for API responses.
//
// Every failure leaving the API is classified by Kind, which fixes the HTTP
// status, the machine-readable code, and a generic client-safe message.
// Handlers never pick statuses ad hoc and never match on message strings.
package httpx

import "net/http"

// Kind is the machine-readable error code carried in the response envelope.
type Kind string

const (
	// KindValidation: request shape invalid. Details list field-level messages.
	KindValidation Kind = "VALIDATION_ERROR"

	// KindCSRFInvalid: missing/expired/mismatched CSRF token. The message is
	// deliberately generic -- revealing which check failed builds an oracle.
	KindCSRFInvalid Kind = "CSRF_INVALID"

	// KindInvalidCredentials: sign-in failure. Shared between "no such user"
	// and "wrong password" to prevent account enumeration.
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"

	// KindDuplicateEmail: sign-up with an email that already has an account.
	KindDuplicateEmail Kind = "DUPLICATE_EMAIL"

	// KindNotFound: no route matched.
	KindNotFound Kind = "NOT_FOUND"

	// KindRateLimited: caller exceeded the request budget.
	KindRateLimited Kind = "RATE_LIMITED"

	// KindUnexpected: anything else. Full detail is logged server-side with
	// the request id, never echoed to the client.
	KindUnexpected Kind = "INTERNAL_SERVER_ERROR"
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindCSRFInvalid:
		return http.StatusForbidden
	case KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindDuplicateEmail:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the generic client-safe message for the kind.
func (k Kind) Message() string {
	switch k {
	case KindValidation:
		return "Invalid request"
	case KindCSRFInvalid:
		return "Invalid CSRF token"
	case KindInvalidCredentials:
		return "Invalid credentials"
	case KindDuplicateEmail:
		return "An account with this email already exists"
	case KindNotFound:
		return "Resource not found"
	case KindRateLimited:
		return "Too many requests"
	default:
		return "An unexpected error occurred"
	}
}
