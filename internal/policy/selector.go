// Package policy decides which issuance mode handles a request.
package policy

import (
	"github.com/darmiel/guestgate/internal/config"
	"github.com/darmiel/guestgate/internal/core"
)

var _ core.ModeSelector = (*Selector)(nil)

// Selector derives the issuance mode from configuration only.
// Nothing supplied with a request can change its answer.
type Selector struct {
	cfg config.GuestTokenConfig
}

func NewSelector(cfg config.GuestTokenConfig) *Selector {
	return &Selector{cfg: cfg}
}

// Mode returns ModeLocalSigning if a signing secret is configured,
// ModeUpstreamProxy otherwise.
func (s *Selector) Mode() core.Mode {
	if s.cfg.HasSecret() {
		return core.ModeLocalSigning
	}
	return core.ModeUpstreamProxy
}

// LocalSigningEnabled reports whether guest tokens are signed locally.
func (s *Selector) LocalSigningEnabled() bool {
	return s.Mode() == core.ModeLocalSigning
}
