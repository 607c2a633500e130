package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/darmiel/guestgate/internal/audit"
	"github.com/darmiel/guestgate/internal/core"
)

type fixedMode core.Mode

func (m fixedMode) Mode() core.Mode { return core.Mode(m) }

type stubSigner struct {
	calls int
	gotID string
	gotRL []core.RLSRule
	err   error
}

func (s *stubSigner) Sign(_ context.Context, identity, dashboardID string, rls []core.RLSRule) (*core.GuestToken, error) {
	s.calls++
	s.gotID = identity
	s.gotRL = rls
	if s.err != nil {
		return nil, s.err
	}
	now := time.Now()
	return &core.GuestToken{Value: "local:" + identity + ":" + dashboardID, Mode: core.ModeLocalSigning, IssuedAt: now, ExpiresAt: now.Add(time.Minute)}, nil
}

type stubBroker struct {
	calls    int
	gotCreds core.UpstreamCredentials
	gotRL    []core.RLSRule
	err      error
}

func (b *stubBroker) FetchGuestToken(_ context.Context, creds core.UpstreamCredentials, dashboardID string, rls []core.RLSRule) (*core.GuestToken, error) {
	b.calls++
	b.gotCreds = creds
	b.gotRL = rls
	if b.err != nil {
		return nil, b.err
	}
	return &core.GuestToken{Value: "upstream:" + dashboardID, Mode: core.ModeUpstreamProxy}, nil
}

func newTestService(mode core.Mode) (*TokenService, *stubSigner, *stubBroker, *audit.InMemoryAuditor) {
	sig := &stubSigner{}
	brk := &stubBroker{}
	aud := audit.NewInMemoryAuditor()
	return NewTokenService(fixedMode(mode), sig, brk, aud), sig, brk, aud
}

func TestIssueGuestToken_LocalSigning(t *testing.T) {
	svc, sig, brk, aud := newTestService(core.ModeLocalSigning)

	rls := []core.RLSRule{{Clause: "country = 'USA'"}, {Clause: "year = 2024"}}
	tok, err := svc.IssueGuestToken(context.Background(), IssueRequest{
		DashboardID: "abc",
		RLS:         rls,
		Identity:    "alice",
		// upstream fields are ignored in local mode
		SupersetDomain: "http://x",
	})
	if err != nil {
		t.Fatalf("IssueGuestToken() error = %v", err)
	}
	if tok.Value != "local:alice:abc" {
		t.Errorf("token = %q", tok.Value)
	}
	if sig.calls != 1 || brk.calls != 0 {
		t.Errorf("signer calls = %d, broker calls = %d", sig.calls, brk.calls)
	}
	if diff := cmp.Diff(rls, sig.gotRL); diff != "" {
		t.Errorf("rls mismatch (-want +got):\n%s", diff)
	}

	entries, _ := aud.GetRecent(10)
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if !e.Success || e.Identity != "alice" || e.Mode != "local_signing" || e.RLSCount != 2 || e.ExpiresAt == nil {
		t.Errorf("unexpected audit entry %+v", e)
	}
	if e.TokenFingerprint == "" || e.TokenFingerprint == tok.Value {
		t.Errorf("audit fingerprint = %q", e.TokenFingerprint)
	}
}

func TestIssueGuestToken_UpstreamProxy(t *testing.T) {
	svc, sig, brk, aud := newTestService(core.ModeUpstreamProxy)

	tok, err := svc.IssueGuestToken(context.Background(), IssueRequest{
		DashboardID:      "abc",
		Identity:         "mallory",
		SupersetDomain:   "http://x",
		SupersetUsername: "u",
		SupersetPassword: "p4ssw0rd",
	})
	if err != nil {
		t.Fatalf("IssueGuestToken() error = %v", err)
	}
	if tok.Value != "upstream:abc" {
		t.Errorf("token = %q", tok.Value)
	}
	if sig.calls != 0 || brk.calls != 1 {
		t.Errorf("signer calls = %d, broker calls = %d", sig.calls, brk.calls)
	}
	if brk.gotCreds != (core.UpstreamCredentials{Domain: "http://x", Username: "u", Password: "p4ssw0rd"}) {
		t.Errorf("credentials = %+v", brk.gotCreds)
	}
	if brk.gotRL == nil || len(brk.gotRL) != 0 {
		t.Errorf("missing rls should default to an empty list, got %#v", brk.gotRL)
	}

	entries, _ := aud.GetRecent(10)
	data, _ := json.Marshal(entries)
	if strings.Contains(string(data), "p4ssw0rd") {
		t.Errorf("audit log contains the upstream password: %s", data)
	}
	if entries[0].UpstreamUser != "u" || entries[0].UpstreamDomain != "http://x" {
		t.Errorf("unexpected audit entry %+v", entries[0])
	}
}

func TestIssueGuestToken_Validation(t *testing.T) {
	tests := []struct {
		name     string
		mode     core.Mode
		req      IssueRequest
		wantKind core.ErrorKind
		wantMsg  string
	}{
		{
			name:     "Local Missing Dashboard",
			mode:     core.ModeLocalSigning,
			req:      IssueRequest{Identity: "alice"},
			wantKind: core.KindValidation,
			wantMsg:  "dashboardId is required",
		},
		{
			name:     "Local Missing Identity",
			mode:     core.ModeLocalSigning,
			req:      IssueRequest{DashboardID: "abc"},
			wantKind: core.KindUnauthenticated,
		},
		{
			name:     "Upstream Missing Dashboard",
			mode:     core.ModeUpstreamProxy,
			req:      IssueRequest{SupersetDomain: "http://x", SupersetUsername: "u", SupersetPassword: "p"},
			wantKind: core.KindValidation,
			wantMsg:  "dashboardId is required",
		},
		{
			name:     "Upstream Missing Everything",
			mode:     core.ModeUpstreamProxy,
			req:      IssueRequest{DashboardID: "abc"},
			wantKind: core.KindValidation,
			wantMsg:  "supersetDomain is required",
		},
		{
			name:     "Upstream Missing Username",
			mode:     core.ModeUpstreamProxy,
			req:      IssueRequest{DashboardID: "abc", SupersetDomain: "http://x", SupersetPassword: "p"},
			wantKind: core.KindValidation,
			wantMsg:  "supersetUsername is required",
		},
		{
			name:     "Upstream Missing Password",
			mode:     core.ModeUpstreamProxy,
			req:      IssueRequest{DashboardID: "abc", SupersetDomain: "http://x", SupersetUsername: "u"},
			wantKind: core.KindValidation,
			wantMsg:  "supersetPassword is required",
		},
		{
			name:     "Upstream Ignores Identity",
			mode:     core.ModeUpstreamProxy,
			req:      IssueRequest{DashboardID: "abc", Identity: "alice"},
			wantKind: core.KindValidation,
			wantMsg:  "supersetDomain is required",
		},
		{
			name:     "Unknown Mode",
			mode:     core.Mode(99),
			req:      IssueRequest{DashboardID: "abc", Identity: "alice"},
			wantKind: core.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, sig, brk, aud := newTestService(tt.mode)
			_, err := svc.IssueGuestToken(context.Background(), tt.req)
			if err == nil {
				t.Fatalf("IssueGuestToken() expected error")
			}
			e := core.AsError(err)
			if e.Kind != tt.wantKind {
				t.Errorf("error kind = %s, want %s", e.Kind, tt.wantKind)
			}
			if tt.wantMsg != "" && e.Message != tt.wantMsg {
				t.Errorf("error message = %q, want %q", e.Message, tt.wantMsg)
			}
			if sig.calls != 0 || brk.calls != 0 {
				t.Errorf("producers called on invalid request: signer=%d broker=%d", sig.calls, brk.calls)
			}
			entries, _ := aud.GetRecent(10)
			if len(entries) != 1 || entries[0].Success || entries[0].ErrorKind != tt.wantKind {
				t.Errorf("unexpected audit entries %+v", entries)
			}
		})
	}
}

func TestIssueGuestToken_ProducerErrorsPropagate(t *testing.T) {
	signErr := core.ConfigurationError("signing secret could not be read", errors.New("permission denied"))
	upstreamErr := core.UpstreamAuthError(401, "Not authorized", errors.New("login: unexpected status code: 401"))

	t.Run("Signer", func(t *testing.T) {
		svc, sig, _, _ := newTestService(core.ModeLocalSigning)
		sig.err = signErr
		_, err := svc.IssueGuestToken(context.Background(), IssueRequest{DashboardID: "abc", Identity: "alice"})
		if err != signErr {
			t.Errorf("error = %v, want the signer error unmodified", err)
		}
	})

	t.Run("Broker", func(t *testing.T) {
		svc, _, brk, _ := newTestService(core.ModeUpstreamProxy)
		brk.err = upstreamErr
		_, err := svc.IssueGuestToken(context.Background(), IssueRequest{
			DashboardID: "abc", SupersetDomain: "http://x", SupersetUsername: "u", SupersetPassword: "p",
		})
		if err != upstreamErr {
			t.Errorf("error = %v, want the broker error unmodified", err)
		}
	})
}
