package core

import "fmt"

// Mode is the issuance mode derived from the server configuration.
type Mode int

const (
	// ModeLocalSigning signs guest tokens with a locally held secret.
	ModeLocalSigning Mode = iota + 1

	// ModeUpstreamProxy obtains guest tokens from the remote platform
	// using credentials supplied with the request.
	ModeUpstreamProxy
)

func (m Mode) String() string {
	switch m {
	case ModeLocalSigning:
		return "local_signing"
	case ModeUpstreamProxy:
		return "upstream_proxy"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}
