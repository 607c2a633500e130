package presenter

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/guestgate/internal/core"
)

type ErrorResponse struct {
	// Error is a short human readable description.
	Error string `json:"error"`

	// Kind is the machine-readable error class.
	Kind core.ErrorKind `json:"kind,omitempty"`

	// Message is the message reported by the analytics platform, if any.
	Message string `json:"message,omitempty"`

	CorrelationID string `json:"correlation_id,omitempty"`

	// Details contains the full error chain and is only set in development mode.
	Details string `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, r *http.Request, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to write json response")
	}
}

func Error(w http.ResponseWriter, r *http.Request, msg string, status int) {
	JSON(w, r, ErrorResponse{
		Error:         msg,
		CorrelationID: core.CorrelationID(r.Context()),
	}, status)
}

// Err translates err into an error response.
// Errors that are not *core.Error are reported as internal errors without leaking their text.
// If exposeDetails is set, the full error chain is included.
func Err(w http.ResponseWriter, r *http.Request, err error, exposeDetails bool) {
	e := core.AsError(err)
	resp := ErrorResponse{
		Error:         e.Message,
		Kind:          e.Kind,
		Message:       e.UpstreamMessage,
		CorrelationID: core.CorrelationID(r.Context()),
	}
	if exposeDetails {
		resp.Details = err.Error()
	}
	JSON(w, r, resp, e.StatusCode())
}
