package service

import "github.com/darmiel/guestgate/internal/core"

// IssueRequest is an issuance request as extracted from the transport.
// Which fields are required depends on the active mode.
type IssueRequest struct {
	// DashboardID is always required.
	DashboardID string

	// RLS defaults to an empty list.
	RLS []core.RLSRule

	// Identity is the value of the trusted identity header (local signing).
	Identity string

	// SupersetDomain, SupersetUsername and SupersetPassword are the platform
	// login credentials (upstream proxy).
	SupersetDomain   string
	SupersetUsername string
	SupersetPassword string
}
