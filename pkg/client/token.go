package client

import (
	"context"

	"github.com/darmiel/guestgate/internal/api"
	"github.com/darmiel/guestgate/internal/core"
)

// GuestTokenOptions describes a guest token request.
type GuestTokenOptions struct {
	// DashboardID is the embedded dashboard to request a token for.
	DashboardID string

	// RLS rules are forwarded verbatim.
	RLS []core.RLSRule

	// SupersetDomain, SupersetUsername and SupersetPassword are only needed
	// if the server requests guest tokens from the platform.
	SupersetDomain   string
	SupersetUsername string
	SupersetPassword string
}

// IssueGuestToken requests a new guest token from the server.
// It returns the token and the correlation ID of the request.
func (c *Client) IssueGuestToken(ctx context.Context, opts GuestTokenOptions) (string, string, error) {
	payload := api.GuestTokenPayload{
		DashboardID:      opts.DashboardID,
		RLS:              opts.RLS,
		SupersetDomain:   opts.SupersetDomain,
		SupersetUsername: opts.SupersetUsername,
		SupersetPassword: opts.SupersetPassword,
	}
	req, err := newJSONRequest(ctx, c.url().setPath(api.GuestTokenRoute).build(), payload)
	if err != nil {
		return "", "", err
	}
	if c.identityHeader != "" && c.identity != "" {
		req.Header.Set(c.identityHeader, c.identity)
	}

	var result api.GuestTokenResponse
	correlation, err := c.do(req, &result)
	if err != nil {
		return "", correlation, err
	}
	return result.Token, correlation, nil
}
