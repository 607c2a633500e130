package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/guestgate/internal/audit"
	"github.com/darmiel/guestgate/internal/core"
	"github.com/darmiel/guestgate/internal/metrics"
)

const issueAction = "guest_token.issue"

// TokenService dispatches issuance requests to exactly one token producer,
// depending on the mode reported by the selector.
type TokenService struct {
	selector core.ModeSelector
	signer   core.LocalSigner
	broker   core.UpstreamBroker
	auditor  core.Auditor
}

func NewTokenService(
	selector core.ModeSelector,
	signer core.LocalSigner,
	broker core.UpstreamBroker,
	auditor core.Auditor,
) *TokenService {
	if auditor == nil {
		auditor = audit.NewLogAuditor()
	}
	return &TokenService{
		selector: selector,
		signer:   signer,
		broker:   broker,
		auditor:  auditor,
	}
}

// Mode returns the currently active issuance mode.
func (s *TokenService) Mode() core.Mode {
	return s.selector.Mode()
}

// IssueGuestToken validates req and issues a guest token.
// Errors are *core.Error values and are returned unmodified from the producers.
func (s *TokenService) IssueGuestToken(ctx context.Context, req IssueRequest) (_ *core.GuestToken, err error) {
	logger := log.Ctx(ctx)
	mode := s.selector.Mode()

	auditEntry := core.AuditEntry{
		ID:          core.CorrelationID(ctx),
		Time:        time.Now(),
		Action:      issueAction,
		Mode:        mode.String(),
		DashboardID: req.DashboardID,
		RLSCount:    len(req.RLS),
	}
	defer func() {
		outcome := metrics.ResultSuccess
		if err != nil {
			e := core.AsError(err)
			auditEntry.ErrorKind = e.Kind
			auditEntry.Error = e.Message
			outcome = string(e.Kind)
		}
		metrics.RecordIssuance(mode.String(), outcome)
		if logErr := s.auditor.Log(auditEntry); logErr != nil {
			logger.Error().Err(logErr).Msg("failed to write audit log entry for guest token issuance")
		}
	}()

	if req.DashboardID == "" {
		return nil, missingField("dashboardId")
	}
	rls := req.RLS
	if rls == nil {
		rls = []core.RLSRule{}
	}

	logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("mode", mode.String()).Str("dashboard_id", req.DashboardID)
	})

	var token *core.GuestToken
	switch mode {
	case core.ModeLocalSigning:
		auditEntry.Identity = req.Identity
		if req.Identity == "" {
			return nil, core.UnauthenticatedError("missing trusted identity header")
		}
		token, err = s.signer.Sign(ctx, req.Identity, req.DashboardID, rls)

	case core.ModeUpstreamProxy:
		auditEntry.UpstreamDomain = req.SupersetDomain
		auditEntry.UpstreamUser = req.SupersetUsername
		switch {
		case req.SupersetDomain == "":
			return nil, missingField("supersetDomain")
		case req.SupersetUsername == "":
			return nil, missingField("supersetUsername")
		case req.SupersetPassword == "":
			return nil, missingField("supersetPassword")
		}
		token, err = s.broker.FetchGuestToken(ctx, core.UpstreamCredentials{
			Domain:   req.SupersetDomain,
			Username: req.SupersetUsername,
			Password: req.SupersetPassword,
		}, req.DashboardID, rls)

	default:
		return nil, core.InternalError("unsupported issuance mode", fmt.Errorf("mode %s", mode))
	}
	if err != nil {
		return nil, err
	}

	auditEntry.Success = true
	auditEntry.TokenFingerprint = audit.Fingerprint(token.Value)
	if !token.ExpiresAt.IsZero() {
		exp := token.ExpiresAt
		auditEntry.ExpiresAt = &exp
	}

	logger.Info().
		Str("fingerprint", auditEntry.TokenFingerprint).
		Msg("guest token issued")

	return token, nil
}
