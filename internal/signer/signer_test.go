package signer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/darmiel/guestgate/internal/core"
)

type staticSecret []byte

func (s staticSecret) Resolve(context.Context) ([]byte, error) {
	return s, nil
}

type failingSecret struct{ err error }

func (f failingSecret) Resolve(context.Context) ([]byte, error) {
	return nil, f.err
}

// rawPayload decodes the payload segment of token without verifying it.
func rawPayload(t *testing.T, token string) map[string]any {
	t.Helper()
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d segments, want 3", len(parts))
	}
	data, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("unmarshalling payload: %v", err)
	}
	return payload
}

func TestSigner_Sign(t *testing.T) {
	s := New(staticSecret("s3cret"), 300*time.Second)

	tok, err := s.Sign(context.Background(), "alice", "abc", []core.RLSRule{{Clause: "country = 'USA'"}})
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if tok.Mode != core.ModeLocalSigning {
		t.Errorf("Mode = %s", tok.Mode)
	}

	claims, err := Parse(tok.Value, []byte("s3cret"), "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if diff := cmp.Diff(core.GuestUser{Username: "alice", FirstName: "Guest", LastName: "User"}, claims.User); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]core.Resource{{Type: "dashboard", ID: "abc"}}, claims.Resources); diff != "" {
		t.Errorf("resources mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]RLSClause{{Clause: "country = 'USA'"}}, claims.RLSRules); diff != "" {
		t.Errorf("rls_rules mismatch (-want +got):\n%s", diff)
	}
	if claims.Type != "guest" {
		t.Errorf("type = %q, want guest", claims.Type)
	}
	if got := claims.ExpiresAt.Unix() - claims.IssuedAt.Unix(); got != 300 {
		t.Errorf("exp - iat = %d, want 300", got)
	}
	if !tok.ExpiresAt.Equal(claims.ExpiresAt.Time) {
		t.Errorf("GuestToken.ExpiresAt = %s, claims exp = %s", tok.ExpiresAt, claims.ExpiresAt.Time)
	}
}

func TestSigner_ExpiryMatchesTTL(t *testing.T) {
	for _, ttl := range []time.Duration{time.Second, time.Minute, 300 * time.Second, 24 * time.Hour} {
		t.Run(ttl.String(), func(t *testing.T) {
			fixed := time.Date(2026, 1, 2, 3, 4, 5, 999, time.UTC)
			s := New(staticSecret("k"), ttl, WithClock(func() time.Time { return fixed }))
			tok, err := s.Sign(context.Background(), "alice", "abc", nil)
			if err != nil {
				t.Fatalf("Sign() error = %v", err)
			}
			payload := rawPayload(t, tok.Value)
			iat := int64(payload["iat"].(float64))
			exp := int64(payload["exp"].(float64))
			if iat != fixed.Unix() {
				t.Errorf("iat = %d, want %d", iat, fixed.Unix())
			}
			if exp-iat != int64(ttl/time.Second) {
				t.Errorf("exp - iat = %d, want %d", exp-iat, int64(ttl/time.Second))
			}
		})
	}
}

func TestSigner_WrongSecretFails(t *testing.T) {
	s := New(staticSecret("correct horse"), time.Minute)
	tok, err := s.Sign(context.Background(), "alice", "abc", nil)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	if _, err := Parse(tok.Value, []byte("correct horse"), ""); err != nil {
		t.Errorf("Parse() with correct secret error = %v", err)
	}
	for _, wrong := range []string{"", "correct", "correct horse ", "Correct horse", "battery staple"} {
		if _, err := Parse(tok.Value, []byte(wrong), ""); err == nil {
			t.Errorf("Parse() with secret %q succeeded", wrong)
		}
	}
}

func TestSigner_RLSPreserved(t *testing.T) {
	tests := []struct {
		name string
		rls  []core.RLSRule
		want []RLSClause
	}{
		{name: "Empty", rls: nil, want: []RLSClause{}},
		{
			name: "Order Kept",
			rls: []core.RLSRule{
				{Clause: "b = 2"},
				{Clause: "a = 1"},
				{Clause: "b = 2"},
			},
			want: []RLSClause{{Clause: "b = 2"}, {Clause: "a = 1"}, {Clause: "b = 2"}},
		},
		{
			name: "Dataset Dropped",
			rls:  []core.RLSRule{{Dataset: 42, Clause: "region IN ('EU')"}},
			want: []RLSClause{{Clause: "region IN ('EU')"}},
		},
		{
			name: "Opaque Clauses",
			rls:  []core.RLSRule{{Clause: ""}, {Clause: "not ) valid sql ("}, {Clause: "name = 'Zoë'"}},
			want: []RLSClause{{Clause: ""}, {Clause: "not ) valid sql ("}, {Clause: "name = 'Zoë'"}},
		},
	}

	s := New(staticSecret("k"), time.Minute)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := s.Sign(context.Background(), "alice", "abc", tt.rls)
			if err != nil {
				t.Fatalf("Sign() error = %v", err)
			}
			claims, err := Parse(tok.Value, []byte("k"), "")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			got := claims.RLSRules
			if got == nil {
				got = []RLSClause{}
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("rls_rules mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSigner_Audience(t *testing.T) {
	without, err := New(staticSecret("k"), time.Minute).Sign(context.Background(), "alice", "abc", nil)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if _, ok := rawPayload(t, without.Value)["aud"]; ok {
		t.Errorf("aud claim present without configured audience")
	}

	with, err := New(staticSecret("k"), time.Minute, WithAudience("superset")).Sign(context.Background(), "alice", "abc", nil)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if _, err := Parse(with.Value, []byte("k"), "superset"); err != nil {
		t.Errorf("Parse() with audience error = %v", err)
	}
	if _, err := Parse(with.Value, []byte("k"), "other"); err == nil {
		t.Errorf("Parse() with wrong audience succeeded")
	}
}

func TestSigner_Errors(t *testing.T) {
	secretErr := core.ConfigurationError("signing secret could not be read", errors.New("boom"))

	tests := []struct {
		name        string
		secrets     SecretSource
		identity    string
		dashboardID string
		wantKind    core.ErrorKind
	}{
		{name: "Missing Identity", secrets: staticSecret("k"), dashboardID: "abc", wantKind: core.KindUnauthenticated},
		{name: "Missing Dashboard", secrets: staticSecret("k"), identity: "alice", wantKind: core.KindValidation},
		{name: "Secret Failure", secrets: failingSecret{err: secretErr}, identity: "alice", dashboardID: "abc", wantKind: core.KindConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.secrets, time.Minute).Sign(context.Background(), tt.identity, tt.dashboardID, nil)
			if err == nil {
				t.Fatalf("Sign() expected error")
			}
			if kind := core.KindOf(err); kind != tt.wantKind {
				t.Errorf("error kind = %s, want %s", kind, tt.wantKind)
			}
		})
	}
}
