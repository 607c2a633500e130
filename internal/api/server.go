package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/darmiel/guestgate/internal/api/middleware"
	"github.com/darmiel/guestgate/internal/config"
	"github.com/darmiel/guestgate/internal/service"
)

// maxBodyBytes caps the size of request bodies.
const maxBodyBytes = 1 << 20

type Server struct {
	cfg          *config.Config
	tokenService *service.TokenService
}

func NewServer(cfg *config.Config, tokenService *service.TokenService) *Server {
	return &Server{
		cfg:          cfg,
		tokenService: tokenService,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// public routes
	mux.HandleFunc("GET "+HealthCheckRoute, s.handleHealth)
	mux.HandleFunc("GET "+AboutRoute, s.handleAbout)
	mux.HandleFunc("GET "+ConfigRoute, s.handleConfig)
	mux.Handle("GET "+MetricsRoute, promhttp.Handler())

	// token issuer route
	mux.HandleFunc("POST "+GuestTokenRoute, s.handleGuestToken)

	return middleware.RecoverMiddleware(
		middleware.CorrelationIDMiddleware(
			middleware.LoggingMiddleware(
				middleware.CORS(s.cfg.Server.CORSOrigin)(
					mux))))
}
