package core

import "context"

// LocalSigner mints guest tokens with a locally held secret.
// Implementations: signer.Signer.
type LocalSigner interface {
	// Sign builds and signs a guest token for identity, scoped to the dashboard
	// and restricted by rls.
	Sign(ctx context.Context, identity, dashboardID string, rls []RLSRule) (*GuestToken, error)
}

// UpstreamBroker obtains guest tokens from the remote analytics platform.
// Implementations: superset.Broker.
type UpstreamBroker interface {
	// FetchGuestToken logs in with creds and exchanges the resulting session
	// for a guest token scoped to the dashboard and restricted by rls.
	FetchGuestToken(ctx context.Context, creds UpstreamCredentials, dashboardID string, rls []RLSRule) (*GuestToken, error)
}

// ModeSelector reports which issuance mode is active.
// Implementations: policy.Selector.
type ModeSelector interface {
	Mode() Mode
}
