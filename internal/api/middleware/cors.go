package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows credentialed cross-origin requests from a single origin.
// An empty origin disables CORS headers entirely.
func CORS(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		return func(next http.Handler) http.Handler { return next }
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type", CorrelationIDHeader},
		ExposedHeaders:   []string{CorrelationIDHeader},
		AllowCredentials: true,
	})
	return c.Handler
}
