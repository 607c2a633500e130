package superset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/darmiel/guestgate/internal/audit"
	"github.com/darmiel/guestgate/internal/core"
)

const (
	loginEndpoint      = "/api/v1/security/login"
	guestTokenEndpoint = "/api/v1/security/guest_token/"

	loginProvider = "db"

	// maxResponseBytes caps how much of an upstream response body is read.
	maxResponseBytes = 1 << 20
)

// LoginRequest is the body of the platform's login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Provider string `json:"provider"`
	Refresh  bool   `json:"refresh"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// GuestTokenRequest is the body of the platform's guest token endpoint.
type GuestTokenRequest struct {
	User      core.GuestUser  `json:"user"`
	Resources []core.Resource `json:"resources"`
	RLS       []core.RLSRule  `json:"rls"`
}

type GuestTokenResponse struct {
	Token string `json:"token"`
}

// errorResponse covers the error bodies the platform returns.
// Flask-AppBuilder uses "message", the JWT layer uses "msg".
type errorResponse struct {
	Message any    `json:"message"`
	Msg     string `json:"msg"`
}

func (e errorResponse) String() string {
	switch m := e.Message.(type) {
	case string:
		if m != "" {
			return m
		}
	case nil:
	default:
		if data, err := json.Marshal(m); err == nil {
			return string(data)
		}
	}
	return e.Msg
}

// statusError is returned for non-2xx responses.
type statusError struct {
	StatusCode int
	Message    string
}

func (e *statusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Message)
}

// postJSON sends payload to url and decodes a 2xx response into result.
// bearer is added as Authorization header if set.
func (b *Broker) postJSON(ctx context.Context, url, bearer string, payload, result any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	// inject audit user-agent
	req.Header.Set("User-Agent", audit.CreateUserAgent(core.CorrelationID(ctx)))

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body := io.LimitReader(resp.Body, maxResponseBytes)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp errorResponse
		raw, _ := io.ReadAll(body)
		_ = json.Unmarshal(raw, &errResp)
		return &statusError{
			StatusCode: resp.StatusCode,
			Message:    errResp.String(),
		}
	}

	if err := json.NewDecoder(body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// newHTTPClient returns a client whose overall timeout per call is timeout.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}
