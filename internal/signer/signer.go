// Package signer mints guest tokens locally with an HMAC secret.
package signer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/guestgate/internal/core"
)

var _ core.LocalSigner = (*Signer)(nil)

// SecretSource yields the signing secret.
// Implementations: secret.Provider.
type SecretSource interface {
	Resolve(ctx context.Context) ([]byte, error)
}

// RLSClause is an rls rule as embedded into a locally signed token.
type RLSClause struct {
	Clause string `json:"clause"`
}

// Claims is the guest token payload understood by the analytics platform.
type Claims struct {
	User      core.GuestUser  `json:"user"`
	Resources []core.Resource `json:"resources"`
	RLSRules  []RLSClause     `json:"rls_rules"`
	Type      string          `json:"type"`
	jwt.RegisteredClaims
}

type Signer struct {
	secrets  SecretSource
	ttl      time.Duration
	audience string

	now func() time.Time
}

type Option func(*Signer)

// WithAudience adds an "aud" claim to every token.
func WithAudience(audience string) Option {
	return func(s *Signer) {
		s.audience = audience
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

func New(secrets SecretSource, ttl time.Duration, opts ...Option) *Signer {
	s := &Signer{
		secrets: secrets,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign builds a guest token payload for identity and signs it with HS256.
// rls clauses are copied in order; datasets are dropped.
func (s *Signer) Sign(ctx context.Context, identity, dashboardID string, rls []core.RLSRule) (*core.GuestToken, error) {
	if identity == "" {
		return nil, core.UnauthenticatedError("missing caller identity")
	}
	if dashboardID == "" {
		return nil, core.ValidationError("dashboardId is required")
	}

	secret, err := s.secrets.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	// whole seconds so that exp - iat is exactly the ttl
	now := s.now().Truncate(time.Second)
	exp := now.Add(s.ttl)

	clauses := make([]RLSClause, 0, len(rls))
	for _, rule := range rls {
		clauses = append(clauses, RLSClause{Clause: rule.Clause})
	}

	claims := Claims{
		User:      core.NewGuestUser(identity),
		Resources: core.DashboardResources(dashboardID),
		RLSRules:  clauses,
		Type:      core.GuestTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return nil, core.InternalError("failed to sign guest token", fmt.Errorf("signing guest token: %w", err))
	}

	log.Ctx(ctx).Debug().
		Str("dashboard_id", dashboardID).
		Int("rls_rules", len(clauses)).
		Time("expires_at", exp).
		Msg("signed guest token")

	return &core.GuestToken{
		Value:     signed,
		Mode:      core.ModeLocalSigning,
		IssuedAt:  now,
		ExpiresAt: exp,
	}, nil
}

// Parse verifies token with secret and returns its claims.
// If audience is set, the token must carry it.
func Parse(token string, secret []byte, audience string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parsing guest token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("guest token is not valid")
	}
	if claims.Type != core.GuestTokenType {
		return nil, fmt.Errorf("unexpected token type %q", claims.Type)
	}
	return &claims, nil
}
