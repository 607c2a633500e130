package core

import "time"

type AuditEntry struct {
	// ID is the unique request ID (X-Correlation-ID)
	ID string `json:"id"`

	// Time is the timestamp of the event
	Time time.Time `json:"time"`

	// Action describing what happened (e.g. "guest_token.issue")
	Action string `json:"action"`

	// Mode is the issuance mode that handled the request
	Mode string `json:"mode"`

	// DashboardID is the requested dashboard resource
	DashboardID string `json:"dashboard_id,omitempty"`

	// RLSCount is the number of rls rules embedded into the token
	RLSCount int `json:"rls_count"`

	// Identity is the trusted caller identity (local mode)
	Identity string `json:"identity,omitempty"`

	// UpstreamDomain and UpstreamUser identify the platform login (upstream mode).
	// The password is never recorded.
	UpstreamDomain string `json:"upstream_domain,omitempty"`
	UpstreamUser   string `json:"upstream_user,omitempty"`

	// Decision details
	Success   bool      `json:"success"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Error     string    `json:"error,omitempty"`

	// TokenFingerprint identifies the issued token without revealing it
	TokenFingerprint string `json:"token_fingerprint,omitempty"`

	// ExpiresAt is set for locally signed tokens
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type Auditor interface {
	Log(entry AuditEntry) error
	Close() error
}
