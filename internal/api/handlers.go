package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/guestgate/internal/api/presenter"
	"github.com/darmiel/guestgate/internal/buildinfo"
	"github.com/darmiel/guestgate/internal/core"
	"github.com/darmiel/guestgate/internal/service"
)

// handleHealth responds with a simple OK status to indicate the server is healthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleAbout responds with service information including version and commit hash.
func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, buildinfo.GetBuildInfo(), http.StatusOK)
}

// ConfigResponse tells the UI how the server is configured.
type ConfigResponse struct {
	// JWTAuthEnabled is true if guest tokens are signed locally,
	// in which case the UI does not ask for platform credentials.
	JWTAuthEnabled bool `json:"jwtAuthEnabled"`

	// Pre-configured domains. If set, the UI hides the respective inputs.
	SupersetFrontendDomain string `json:"supersetFrontendDomain,omitempty"`
	SupersetAPIDomain      string `json:"supersetApiDomain,omitempty"`
	PermalinkDomain        string `json:"permalinkDomain,omitempty"`
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, ConfigResponse{
		JWTAuthEnabled:         s.tokenService.Mode() == core.ModeLocalSigning,
		SupersetFrontendDomain: s.cfg.Superset.FrontendDomain,
		SupersetAPIDomain:      s.cfg.Superset.APIDomain,
		PermalinkDomain:        s.cfg.Superset.PermalinkDomain,
	}, http.StatusOK)
}

type GuestTokenPayload struct {
	DashboardID string         `json:"dashboardId"`
	RLS         []core.RLSRule `json:"rls,omitempty"`

	// only used when guest tokens are requested from the platform
	SupersetDomain   string `json:"supersetDomain,omitempty"`
	SupersetUsername string `json:"supersetUsername,omitempty"`
	SupersetPassword string `json:"supersetPassword,omitempty"`
}

type GuestTokenResponse struct {
	Token string `json:"token"`
}

func DecodePayload(r *http.Request, dest any, allowEmpty bool) error {
	contentType := r.Header.Get("Content-Type")
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			return errors.New("unsupported content type")
		}
	}

	// unknown fields are ignored, rls rules are kept as received
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dest); err != nil {
		if !errors.Is(err, io.EOF) || !allowEmpty {
			return err
		}
	}
	// ensure there's no extra data
	if dec.More() {
		return errors.New("extra data in request body")
	}
	return nil
}

// handleGuestToken processes guest token issuance requests.
func (s *Server) handleGuestToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var payload GuestTokenPayload
	if err := DecodePayload(r, &payload, true /* allow empty */); err != nil {
		logger.Warn().Err(err).Msg("failed to decode guest token request payload")
		verr := core.ValidationError("invalid request payload")
		verr.Cause = fmt.Errorf("decoding payload: %w", err)
		presenter.Err(w, r, verr, s.cfg.Server.ExposeErrorDetails)
		return
	}

	token, err := s.tokenService.IssueGuestToken(ctx, service.IssueRequest{
		DashboardID:      payload.DashboardID,
		RLS:              payload.RLS,
		Identity:         strings.TrimSpace(r.Header.Get(s.cfg.GuestToken.UsernameHeader)),
		SupersetDomain:   payload.SupersetDomain,
		SupersetUsername: payload.SupersetUsername,
		SupersetPassword: payload.SupersetPassword,
	})
	if err != nil {
		e := core.AsError(err)
		event := logger.Warn()
		if e.StatusCode() >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.Err(err).Str("kind", string(e.Kind)).Msg("guest token issuance failed")
		presenter.Err(w, r, err, s.cfg.Server.ExposeErrorDetails)
		return
	}

	presenter.JSON(w, r, GuestTokenResponse{Token: token.Value}, http.StatusOK)
}
