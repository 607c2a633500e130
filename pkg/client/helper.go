package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/darmiel/guestgate/internal/api/middleware"
	"github.com/darmiel/guestgate/internal/api/presenter"
	"github.com/darmiel/guestgate/internal/core"
)

// APIError is returned for error responses of the server.
type APIError struct {
	StatusCode    int
	CorrelationID string
	Kind          core.ErrorKind
	Message       string

	// UpstreamMessage is the message reported by the analytics platform, if any.
	UpstreamMessage string
}

func (e APIError) Error() string {
	msg := fmt.Sprintf("api error: '%s'", e.Message)
	if e.Kind != "" {
		msg += fmt.Sprintf(" [%s]", e.Kind)
	}
	if e.UpstreamMessage != "" {
		msg += fmt.Sprintf(" (upstream: %s)", e.UpstreamMessage)
	}
	return msg + fmt.Sprintf(" (correlation: %s)", e.CorrelationID)
}

func (c *Client) get(ctx context.Context, url string, result any) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// newJSONRequest builds a POST request carrying payload as JSON.
func newJSONRequest(ctx context.Context, url string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling payload: %w", err)
		}
		body = bytes.NewBuffer(bodyBytes)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func parseErrorResponse(resp *http.Response) error {
	var errResp presenter.ErrorResponse
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("request failed with status %d and unreadable body: %w", resp.StatusCode, err)
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return APIError{
			StatusCode:      resp.StatusCode,
			CorrelationID:   errResp.CorrelationID,
			Kind:            errResp.Kind,
			Message:         errResp.Error,
			UpstreamMessage: errResp.Message,
		}
	}
	return fmt.Errorf("api error: *unparsed '%s' (status %d)", string(body), resp.StatusCode)
}

func (c *Client) do(req *http.Request, result any) (string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("connection failed: %w", err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode >= 400 {
		return correlationFromResponse(resp), parseErrorResponse(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return correlationFromResponse(resp), fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return correlationFromResponse(resp), nil
}

func correlationFromResponse(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	return resp.Header.Get(middleware.CorrelationIDHeader)
}
