package middleware

import (
	"net/http"

	"github.com/rs/xid"

	"github.com/darmiel/guestgate/internal/core"
)

const CorrelationIDHeader = "X-Correlation-ID"

// maxCorrelationIDLength bounds client supplied ids.
const maxCorrelationIDLength = 128

// CorrelationIDMiddleware reuses the caller's correlation id or generates one,
// echoes it in the response and stores it in the request context.
func CorrelationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationIDHeader)
		if id == "" || len(id) > maxCorrelationIDLength {
			id = xid.New().String()
		}
		w.Header().Set(CorrelationIDHeader, id)

		next.ServeHTTP(w, r.WithContext(core.WithCorrelationID(r.Context(), id)))
	})
}
