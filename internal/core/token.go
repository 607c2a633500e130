package core

import "time"

// GuestToken is the result of a successful issuance.
// Callers only ever see Value; the other fields are for auditing.
type GuestToken struct {
	// Value is the signed or upstream-issued token string.
	Value string `json:"token"`

	// Mode is the issuance mode that produced the token.
	Mode Mode `json:"-"`

	// IssuedAt and ExpiresAt are only known for locally signed tokens.
	IssuedAt  time.Time `json:"-"`
	ExpiresAt time.Time `json:"-"`
}
