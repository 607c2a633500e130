package core

import (
	"bytes"
	"encoding/json"
)

// Fixed identity block and resource type values understood by the analytics platform.
const (
	ResourceTypeDashboard = "dashboard"
	GuestTokenType        = "guest"

	GuestFirstName = "Guest"
	GuestLastName  = "User"

	// UpstreamGuestUsername is the username sent to the platform when a
	// guest token is requested on behalf of an anonymous viewer.
	UpstreamGuestUsername = "guest"
)

// RLSRule is a single row-level-security rule.
// The clause is an opaque predicate and is never parsed by guestgate.
type RLSRule struct {
	// Dataset optionally restricts the clause to one dataset.
	// It is only forwarded in upstream mode.
	Dataset any `json:"dataset,omitempty"`

	Clause string `json:"clause"`

	// Raw is the rule exactly as received. If set, it is what gets forwarded
	// to the platform, including keys guestgate does not know about.
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the received rule in Raw and picks out dataset and clause.
// It never fails: rules that are not objects are forwarded as they are and
// carry an empty clause.
func (r *RLSRule) UnmarshalJSON(data []byte) error {
	r.Raw = append(json.RawMessage(nil), data...)
	r.Dataset, r.Clause = nil, ""

	var fields struct {
		Dataset any             `json:"dataset"`
		Clause  json.RawMessage `json:"clause"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	r.Dataset = fields.Dataset
	r.Clause = clauseText(fields.Clause)
	return nil
}

// MarshalJSON writes Raw if present, the known fields otherwise.
func (r RLSRule) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	type plain RLSRule
	return json.Marshal(plain(r))
}

// clauseText returns a string clause unquoted and any other JSON value as its literal text.
func clauseText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// GuestUser is the identity block embedded into a guest token.
type GuestUser struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// NewGuestUser returns the guest identity block for the given username.
func NewGuestUser(username string) GuestUser {
	return GuestUser{
		Username:  username,
		FirstName: GuestFirstName,
		LastName:  GuestLastName,
	}
}

// Resource is a resource the guest token grants access to.
type Resource struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// DashboardResources returns the single-element resource list for a dashboard.
func DashboardResources(dashboardID string) []Resource {
	return []Resource{{Type: ResourceTypeDashboard, ID: dashboardID}}
}

// UpstreamCredentials are the login credentials for the remote platform.
// They live for a single request and must never be logged.
type UpstreamCredentials struct {
	Domain   string
	Username string
	Password string
}

// GuestTokenRequest is the validated, mode-independent part of an issuance request.
type GuestTokenRequest struct {
	// DashboardID is the embedded dashboard the token is scoped to.
	DashboardID string

	// RLS is forwarded in order. It is never nil after decoding.
	RLS []RLSRule

	// Identity is the caller identity taken from the trusted header (local mode).
	Identity string

	// Upstream holds the platform login credentials (upstream mode).
	Upstream *UpstreamCredentials
}
