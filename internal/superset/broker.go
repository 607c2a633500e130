// Package superset obtains guest tokens from a remote Superset instance.
package superset

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/guestgate/internal/core"
	"github.com/darmiel/guestgate/internal/metrics"
)

var _ core.UpstreamBroker = (*Broker)(nil)

// Broker logs into the platform and exchanges the session for a guest token.
// Neither step is retried: a rejection is reported to the caller as is.
type Broker struct {
	httpClient *http.Client
}

type Option func(*Broker)

// WithHTTPClient replaces the HTTP client used for both calls.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Broker) {
		b.httpClient = c
	}
}

// NewBroker returns a broker that bounds each call with timeout.
func NewBroker(timeout time.Duration, opts ...Option) *Broker {
	b := &Broker{
		httpClient: newHTTPClient(timeout),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FetchGuestToken authenticates with creds and requests a guest token for the
// dashboard. The access token from the login is used for this one exchange only.
func (b *Broker) FetchGuestToken(
	ctx context.Context,
	creds core.UpstreamCredentials,
	dashboardID string,
	rls []core.RLSRule,
) (*core.GuestToken, error) {
	logger := log.Ctx(ctx)
	domain := strings.TrimRight(creds.Domain, "/")

	logger.Debug().
		Str("upstream_domain", domain).
		Str("upstream_user", creds.Username).
		Msg("logging into analytics platform")

	accessToken, err := b.login(ctx, domain, creds.Username, creds.Password)
	if err != nil {
		status, msg := upstreamDetails(err)
		logger.Warn().Err(err).Str("upstream_domain", domain).Msg("upstream login failed")
		return nil, core.UpstreamAuthError(status, msg, err)
	}

	if rls == nil {
		rls = []core.RLSRule{}
	}
	token, err := b.guestToken(ctx, domain, accessToken, dashboardID, rls)
	if err != nil {
		status, msg := upstreamDetails(err)
		logger.Warn().Err(err).Str("upstream_domain", domain).Msg("upstream guest token request failed")
		return nil, core.UpstreamTokenError(status, msg, err)
	}

	logger.Debug().Str("dashboard_id", dashboardID).Msg("received guest token from analytics platform")

	return &core.GuestToken{
		Value: token,
		Mode:  core.ModeUpstreamProxy,
	}, nil
}

func (b *Broker) login(ctx context.Context, domain, username, password string) (string, error) {
	start := time.Now()
	var resp LoginResponse
	err := b.postJSON(ctx, domain+loginEndpoint, "", &LoginRequest{
		Username: username,
		Password: password,
		Provider: loginProvider,
		Refresh:  true,
	}, &resp)
	if err == nil && resp.AccessToken == "" {
		err = errors.New("login response did not contain an access token")
	}
	metrics.ObserveUpstream(metrics.StepLogin, err == nil, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	return resp.AccessToken, nil
}

func (b *Broker) guestToken(ctx context.Context, domain, accessToken, dashboardID string, rls []core.RLSRule) (string, error) {
	start := time.Now()
	var resp GuestTokenResponse
	err := b.postJSON(ctx, domain+guestTokenEndpoint, accessToken, &GuestTokenRequest{
		User:      core.NewGuestUser(core.UpstreamGuestUsername),
		Resources: core.DashboardResources(dashboardID),
		RLS:       rls,
	}, &resp)
	if err == nil && resp.Token == "" {
		err = errors.New("guest token response did not contain a token")
	}
	metrics.ObserveUpstream(metrics.StepGuestToken, err == nil, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("guest token: %w", err)
	}
	return resp.Token, nil
}

// upstreamDetails extracts the platform's status code and message from err.
func upstreamDetails(err error) (int, string) {
	var se *statusError
	if errors.As(err, &se) {
		return se.StatusCode, se.Message
	}
	return 0, ""
}
