package api

const (
	HealthCheckRoute = "/health"
	MetricsRoute     = "/metrics"

	APIParent       = "/api/"
	AboutRoute      = APIParent + "about"
	ConfigRoute     = APIParent + "config"
	GuestTokenRoute = APIParent + "guest-token"
)
