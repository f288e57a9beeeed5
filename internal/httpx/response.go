// Package httpx owns the uniform JSON response envelope and the HTTP-layer
// middleware shared by every route.
//
// response.go -- envelope writers.
// Every non-health response has the same shape:
//
//	{success, data, error:{code,message,details}|null, meta:{requestId,timestamp}}
//
// meta.requestId comes from the request context, so any response can be
// matched to the server log lines emitted while producing it.
package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/finora-app/finora/internal/requestctx"
)

// Envelope is the uniform response wrapper.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data"`
	Error   *ErrorBody `json:"error"`
	Meta    Meta       `json:"meta"`
}

// ErrorBody is the error half of the envelope. Details is nil except for
// validation failures, where it lists field-level messages.
type ErrorBody struct {
	Code    Kind   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// Meta carries response correlation data. RequestID is empty when the
// response is produced outside a request scope (startup probes in tests).
type Meta struct {
	RequestID string `json:"requestId,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Respond writes a success envelope with the given status and data.
func Respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	write(w, r, status, Envelope{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

// RespondError writes a failure envelope for the given kind. The status and
// message are fixed by the kind; details is optional extra context and must
// already be client-safe.
func RespondError(w http.ResponseWriter, r *http.Request, kind Kind, details any) {
	write(w, r, kind.Status(), Envelope{
		Success: false,
		Data:    nil,
		Error: &ErrorBody{
			Code:    kind,
			Message: kind.Message(),
			Details: details,
		},
	})
}

func write(w http.ResponseWriter, r *http.Request, status int, env Envelope) {
	reqID, _ := requestctx.FromContext(r.Context())
	env.Meta = Meta{
		RequestID: reqID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		// Status already sent; nothing to do but record it.
		slog.Error("failed to encode response envelope", "error", err, "request_id", reqID)
	}
}
