// Package client is a Go client for the guestgate HTTP API.
package client

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client

	// identityHeader and identity are sent with issuance requests
	// when the server signs guest tokens locally.
	identityHeader string
	identity       string
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithIdentity sets the trusted identity header.
// This only works if the server is reachable without the authenticating proxy in front of it.
func WithIdentity(header, identity string) Option {
	return func(cl *Client) {
		cl.identityHeader = header
		cl.identity = identity
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type urlBuilder struct {
	base  string
	path  string
	query url.Values
}

func (c *Client) url() *urlBuilder {
	return &urlBuilder{base: c.baseURL, query: url.Values{}}
}

func (u *urlBuilder) setPath(path string) *urlBuilder {
	u.path = path
	return u
}

func (u *urlBuilder) build() string {
	s := u.base + u.path
	if len(u.query) > 0 {
		s += "?" + u.query.Encode()
	}
	return s
}
